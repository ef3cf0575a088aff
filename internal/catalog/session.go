package catalog

// EditSession is either idle or editing exactly one entity.
type EditSession struct {
	active bool
	target int64
}

// Editing is a session with id in write mode.
func Editing(id int64) EditSession { return EditSession{active: true, target: id} }

func (s EditSession) Active() bool { return s.active }

// Target returns the edited entity id.
func (s EditSession) Target() (int64, bool) { return s.target, s.active }

// IsEditing reports whether id is the row currently rendered in write mode.
func (s EditSession) IsEditing(id int64) bool { return s.active && s.target == id }

func (s EditSession) begin(id int64) (EditSession, error) {
	if s.active {
		return s, ErrEditInProgress
	}
	return Editing(id), nil
}
