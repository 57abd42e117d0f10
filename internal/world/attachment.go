package world

import (
	"errors"
	"fmt"
	"sort"

	"github.com/l1jgo/shipcore/internal/core/ecs"
	"github.com/l1jgo/shipcore/internal/geom"
)

var ErrAttachCycle = errors.New("attachment would form a cycle")

// Link places a child ship relative to its parent.
type Link struct {
	Child    ecs.EntityID
	Parent   ecs.EntityID
	Offset   geom.Vec2 // in parent space
	Rotation float64   // relative to the parent's rotation
}

// Attachments is the parent/child graph between ships. It is a deletion
// observer: a deleted child is unlinked, and the children of a deleted
// parent are queued for destruction.
type Attachments struct {
	ecs.NopObserver[Ship]
	links    map[ecs.EntityID]Link
	children map[ecs.EntityID][]ecs.EntityID
	destroy  func(ecs.EntityID)
}

func NewAttachments(destroy func(ecs.EntityID)) *Attachments {
	return &Attachments{
		links:    make(map[ecs.EntityID]Link),
		children: make(map[ecs.EntityID][]ecs.EntityID),
		destroy:  destroy,
	}
}

// Attach links child to parent. Both must be alive and the link must not
// close a loop. Re-attaching a child moves it.
func (a *Attachments) Attach(s *ecs.Storage[Ship], l Link) error {
	if !s.Alive(l.Child) || !s.Alive(l.Parent) {
		return fmt.Errorf("attach %s to %s: %w", l.Child, l.Parent, ecs.ErrNotFound)
	}
	for p := l.Parent; ; {
		if p == l.Child {
			return fmt.Errorf("attach %s to %s: %w", l.Child, l.Parent, ErrAttachCycle)
		}
		up, ok := a.links[p]
		if !ok {
			break
		}
		p = up.Parent
	}
	a.Detach(l.Child)
	a.links[l.Child] = l
	a.children[l.Parent] = append(a.children[l.Parent], l.Child)
	return nil
}

// Detach removes child's link, if any.
func (a *Attachments) Detach(child ecs.EntityID) {
	l, ok := a.links[child]
	if !ok {
		return
	}
	delete(a.links, child)
	siblings := a.children[l.Parent]
	for i, c := range siblings {
		if c == child {
			siblings = append(siblings[:i], siblings[i+1:]...)
			break
		}
	}
	if len(siblings) == 0 {
		delete(a.children, l.Parent)
	} else {
		a.children[l.Parent] = siblings
	}
}

func (a *Attachments) Parent(child ecs.EntityID) (ecs.EntityID, bool) {
	l, ok := a.links[child]
	return l.Parent, ok
}

func (a *Attachments) Children(parent ecs.EntityID) []ecs.EntityID {
	return a.children[parent]
}

func (a *Attachments) Len() int { return len(a.links) }

func (a *Attachments) OnDelete(_ *ecs.Storage[Ship], id ecs.EntityID) {
	a.Detach(id)
	kids := a.children[id]
	delete(a.children, id)
	for _, c := range kids {
		delete(a.links, c)
		a.destroy(c)
	}
}

// Ordered lists every link with parents before their children.
func (a *Attachments) Ordered() []Link {
	type ranked struct {
		link  Link
		depth int
	}
	out := make([]ranked, 0, len(a.links))
	for _, l := range a.links {
		depth := 0
		for p := l.Parent; ; depth++ {
			up, ok := a.links[p]
			if !ok {
				break
			}
			p = up.Parent
		}
		out = append(out, ranked{l, depth})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].depth != out[j].depth {
			return out[i].depth < out[j].depth
		}
		return out[i].link.Child.Index() < out[j].link.Child.Index()
	})
	links := make([]Link, len(out))
	for i, r := range out {
		links[i] = r.link
	}
	return links
}
