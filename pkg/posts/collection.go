package posts

import "sort"

// Collection is the set of posts known on the current page, indexed by ID.
type Collection struct {
	renderer Renderer
	posts    map[uint64]*Post
	onAdd    []func(*Post)
	onRemove []func(*Post)
}

// NewCollection returns an empty collection. Posts added to it get their
// view from renderer; a nil renderer attaches NopView.
func NewCollection(renderer Renderer) *Collection {
	return &Collection{
		renderer: renderer,
		posts:    make(map[uint64]*Post),
	}
}

// Get returns the post with the given ID.
func (c *Collection) Get(id uint64) (*Post, bool) {
	p, ok := c.posts[id]
	return p, ok
}

// Has reports whether the post is known.
func (c *Collection) Has(id uint64) bool {
	_, ok := c.posts[id]
	return ok
}

// Add inserts p, replacing any post with the same ID, and renders it.
func (c *Collection) Add(p *Post) {
	if old, ok := c.posts[p.ID()]; ok && old != p {
		old.view.Remove()
	}
	c.posts[p.ID()] = p
	if c.renderer != nil {
		p.SetView(c.renderer.Render(p))
	}
	for _, fn := range c.onAdd {
		fn(p)
	}
}

// Remove removes the post and its view. Returns false if it was unknown.
func (c *Collection) Remove(id uint64) bool {
	p, ok := c.posts[id]
	if !ok {
		return false
	}
	delete(c.posts, id)
	p.view.Remove()
	for _, fn := range c.onRemove {
		fn(p)
	}
	return true
}

// Len returns the number of posts.
func (c *Collection) Len() int {
	return len(c.posts)
}

// All returns the posts ordered by ID.
func (c *Collection) All() []*Post {
	out := make([]*Post, 0, len(c.posts))
	for _, p := range c.posts {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

// Open returns the posts still being edited, ordered by ID.
func (c *Collection) Open() []*Post {
	var out []*Post
	for _, p := range c.All() {
		if p.Editing() {
			out = append(out, p)
		}
	}
	return out
}

// MinReplyID returns the lowest ID among posts that are not the opening
// post, or 0 if there are none.
func (c *Collection) MinReplyID() uint64 {
	var lowest uint64
	for id, p := range c.posts {
		if p.kind == KindOpeningPost {
			continue
		}
		if lowest == 0 || id < lowest {
			lowest = id
		}
	}
	return lowest
}

// OnAdd registers fn to be called after a post is added.
func (c *Collection) OnAdd(fn func(*Post)) {
	c.onAdd = append(c.onAdd, fn)
}

// OnRemove registers fn to be called after a post is removed.
func (c *Collection) OnRemove(fn func(*Post)) {
	c.onRemove = append(c.onRemove, fn)
}
