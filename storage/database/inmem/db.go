package inmemdb

import (
	"sync"

	"github.com/medshare/backend/core/post"
	"github.com/medshare/backend/core/user"
)

// DB is a mutex-guarded in-memory store. It backs tests and local runs
// without a database server.
type DB struct {
	user    *userTable
	pending *pendingTable
	post    *postTable
	like    *likeTable
}

func NewDB() *DB {
	return &DB{
		user:    &userTable{table: make(map[string]*user.User)},
		pending: &pendingTable{table: make(map[string]*user.PendingUser)},
		post:    &postTable{table: make(map[string]*post.Post)},
		like:    &likeTable{table: make(map[likeKey]struct{})},
	}
}

type userTable struct {
	mutex sync.RWMutex
	table map[string]*user.User // keyed by ID
}

type pendingTable struct {
	mutex sync.RWMutex
	table map[string]*user.PendingUser // keyed by token
}

type postTable struct {
	mutex sync.RWMutex
	table map[string]*post.Post // keyed by ID
}

type likeKey struct {
	userID string
	postID string
}

type likeTable struct {
	mutex sync.RWMutex
	table map[likeKey]struct{}
}
