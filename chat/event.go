package chat

// Event is a classified moderation action. It is one of Timeout,
// PermanentBan or MessageCleared.
type Event interface {
	// Kind is a short stable name, used for metrics and logs.
	Kind() string
	// Target is the user the action applies to.
	Target() string
	isEvent()
}

// Timeout is a CLEARCHAT carrying a ban duration.
type Timeout struct {
	User            string
	DurationSeconds int
	// LastMessage is the user's last remembered message, if any.
	LastMessage string
}

// PermanentBan is a CLEARCHAT without a ban duration.
type PermanentBan struct {
	User        string
	LastMessage string
}

// MessageCleared is a CLEARMSG: one message removed by a moderator.
type MessageCleared struct {
	User    string
	Message string
}

func (Timeout) Kind() string        { return "timeout" }
func (PermanentBan) Kind() string   { return "ban" }
func (MessageCleared) Kind() string { return "clearmsg" }

func (e Timeout) Target() string        { return e.User }
func (e PermanentBan) Target() string   { return e.User }
func (e MessageCleared) Target() string { return e.User }

func (Timeout) isEvent()        {}
func (PermanentBan) isEvent()   {}
func (MessageCleared) isEvent() {}
