package comments

import (
	"slices"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/skypoint/socialfeed/internal/models"
)

// Node is a comment with its ordered replies. Nodes never point back at their parent.
type Node struct {
	ID              uuid.UUID  `json:"id"`
	PostID          uuid.UUID  `json:"postId"`
	ParentCommentID *uuid.UUID `json:"parentCommentId"`
	Content         string     `json:"content"`
	CreatedAt       time.Time  `json:"createdAt"`
	TimeAgo         string     `json:"timeAgo"`
	Author          *Author    `json:"user"`
	Replies         []*Node    `json:"replies"`

	userID uuid.UUID
}

func (n *Node) authorID() uuid.UUID { return n.userID }

// Author is the public view of a comment's author
type Author struct {
	ID                uuid.UUID `json:"id"`
	Username          string    `json:"username"`
	FirstName         string    `json:"firstName"`
	LastName          string    `json:"lastName"`
	ProfilePictureURL string    `json:"profilePictureUrl"`
}

func newNode(c *models.Comment) *Node {
	return &Node{
		ID:              c.ID,
		PostID:          c.PostID,
		ParentCommentID: c.ParentCommentID,
		Content:         c.Content,
		CreatedAt:       c.CreatedAt,
		Replies:         []*Node{},
		userID:          c.UserID,
	}
}

// Assemble builds the reply forest of one post from its flat comment list.
// Top-level comments and every reply list are ordered oldest first, ties by id.
// A comment whose parent is not in the list is treated as top-level, so the forest holds every input comment.
func Assemble(flat []models.Comment) []*Node {
	nodes := make(map[uuid.UUID]*Node, len(flat))
	for i := range flat {
		nodes[flat[i].ID] = newNode(&flat[i])
	}

	roots := make([]*Node, 0)
	children := make(map[uuid.UUID][]*Node)
	for i := range flat {
		n := nodes[flat[i].ID]
		if p := flat[i].ParentCommentID; p != nil {
			if _, ok := nodes[*p]; ok && *p != n.ID {
				children[*p] = append(children[*p], n)
				continue
			}
		}
		roots = append(roots, n)
	}

	visited := make(map[uuid.UUID]bool, len(nodes))
	descend := func(from *Node) {
		// explicit stack; depth is unbounded
		stack := []*Node{from}
		for len(stack) > 0 {
			n := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			visited[n.ID] = true

			replies := children[n.ID]
			if len(replies) == 0 {
				continue
			}
			sortNodes(replies)
			n.Replies = replies
			stack = append(stack, replies...)
		}
	}
	for _, n := range roots {
		descend(n)
	}

	// Comments on a parent cycle are unreachable from any root. The earliest of each cycle is promoted.
	if len(visited) < len(nodes) {
		rest := make([]*Node, 0, len(nodes)-len(visited))
		for _, n := range nodes {
			if !visited[n.ID] {
				rest = append(rest, n)
			}
		}
		sortNodes(rest)
		for _, n := range rest {
			if visited[n.ID] {
				continue
			}
			parent := *n.ParentCommentID
			children[parent] = slices.DeleteFunc(children[parent], func(c *Node) bool { return c == n })
			roots = append(roots, n)
			descend(n)
		}
	}

	sortNodes(roots)
	return roots
}

func sortNodes(nodes []*Node) {
	sort.Slice(nodes, func(i, j int) bool {
		if !nodes[i].CreatedAt.Equal(nodes[j].CreatedAt) {
			return nodes[i].CreatedAt.Before(nodes[j].CreatedAt)
		}
		return nodes[i].ID.String() < nodes[j].ID.String()
	})
}

// Walk visits every node of the forest depth first, parents before replies
func Walk(forest []*Node, fn func(n *Node)) {
	stack := make([]*Node, 0, len(forest))
	for i := len(forest) - 1; i >= 0; i-- {
		stack = append(stack, forest[i])
	}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		fn(n)
		for i := len(n.Replies) - 1; i >= 0; i-- {
			stack = append(stack, n.Replies[i])
		}
	}
}
