package posts

// Field names an observable property of a post.
type Field string

const (
	FieldBody    Field = "body"
	FieldEditing Field = "editing"
	FieldBanned  Field = "banned"
	FieldDeleted Field = "deleted"
	FieldImage   Field = "image"
	FieldLinks   Field = "links"
)

type subscriber struct {
	id int
	fn func(*Post)
}

// emitter keeps per field subscriber lists. Subscribers run synchronously,
// in subscription order, after the model has been mutated.
type emitter struct {
	nextID int
	subs   map[Field][]subscriber
}

func (e *emitter) subscribe(f Field, fn func(*Post)) func() {
	if e.subs == nil {
		e.subs = make(map[Field][]subscriber)
	}
	e.nextID++
	id := e.nextID
	e.subs[f] = append(e.subs[f], subscriber{id: id, fn: fn})

	return func() {
		list := e.subs[f]
		for i, s := range list {
			if s.id == id {
				e.subs[f] = append(list[:i:i], list[i+1:]...)
				return
			}
		}
	}
}

func (e *emitter) emit(p *Post, fields ...Field) {
	for _, f := range fields {
		// Copy so subscribers may unsubscribe while being notified.
		list := append([]subscriber(nil), e.subs[f]...)
		for _, s := range list {
			s.fn(p)
		}
	}
}
