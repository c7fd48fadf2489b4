package notifications

// Content is the human-readable text shown for a notification.
type Content struct {
	Title   string `yaml:"title" json:"title"`
	Message string `yaml:"message" json:"message"`
}

// ContentTable maps notification kinds to display text. Kinds missing from
// the table use Fallback.
type ContentTable struct {
	Kinds    map[Kind]Content `yaml:"kinds"`
	Fallback Content          `yaml:"fallback"`
}

// Lookup returns the content for kind, or the fallback.
func (t ContentTable) Lookup(kind Kind) Content {
	if c, ok := t.Kinds[kind]; ok {
		return c
	}
	return t.Fallback
}

// merge overlays non-empty entries from o onto a copy of t.
func (t ContentTable) merge(o ContentTable) ContentTable {
	out := ContentTable{
		Kinds:    make(map[Kind]Content, len(t.Kinds)+len(o.Kinds)),
		Fallback: t.Fallback.merge(o.Fallback),
	}
	for k, c := range t.Kinds {
		out.Kinds[k] = c
	}
	for k, c := range o.Kinds {
		out.Kinds[k] = out.Kinds[k].merge(c)
	}
	return out
}

func (c Content) merge(o Content) Content {
	if o.Title != "" {
		c.Title = o.Title
	}
	if o.Message != "" {
		c.Message = o.Message
	}
	return c
}

func userContent() ContentTable {
	return ContentTable{
		Kinds: map[Kind]Content{
			KindNewQuest: {
				Title:   "New quest available",
				Message: "A new quest has been published. Go take a look!",
			},
			KindQuestValidated: {
				Title:   "Quest validated",
				Message: "Your quest submission has been validated. Well done!",
			},
			KindQuestRejected: {
				Title:   "Quest rejected",
				Message: "Your quest submission was rejected. You can try again.",
			},
		},
		Fallback: Content{
			Title:   "Notification",
			Message: "You have a new notification.",
		},
	}
}

func adminContent() ContentTable {
	return ContentTable{
		Kinds: map[Kind]Content{
			KindPendingQuest: {
				Title:   "Submission pending",
				Message: "A quest submission is waiting for review.",
			},
			KindNewQuest: {
				Title:   "Quest created",
				Message: "A new quest has been created.",
			},
			KindQuestValidated: {
				Title:   "Submission validated",
				Message: "A quest submission was validated.",
			},
			KindQuestRejected: {
				Title:   "Submission rejected",
				Message: "A quest submission was rejected.",
			},
		},
		Fallback: Content{
			Title:   "Admin notification",
			Message: "There is a new admin notification.",
		},
	}
}
