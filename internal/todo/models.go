package todo

// Todo is the single persisted entity of the service. ID is assigned by the
// store when zero and never changes afterwards.
type Todo struct {
	ID      int64  `json:"id" gorm:"primaryKey;autoIncrement" bson:"id"`
	Content string `json:"content" gorm:"index:idx_todos_content" bson:"content"`
}

// TableName implements the GORM tabler interface.
func (Todo) TableName() string { return "todos" }

// Update lists the fields a client may overwrite on an existing Todo.
// Identity is deliberately absent.
type Update struct {
	Content string
}

// Apply copies the whitelisted fields onto t.
func (u Update) Apply(t *Todo) {
	t.Content = u.Content
}
