package store

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ContextTimeout = time.Duration(20) * time.Second
)

type Pagination struct {
	Offset int
	Limit  int
}

func DefaultPagination() Pagination {
	return Pagination{
		Offset: 0,
		Limit:  10,
	}
}

// Unpaginated returns every matching document. Used for snapshots feeding aggregates and exports.
func Unpaginated() Pagination {
	return Pagination{}
}

func (p Pagination) WithLimit(limit int) Pagination {
	p.Limit = limit
	return p
}

func (p Pagination) WithOffset(offset int) Pagination {
	p.Offset = offset
	return p
}

// Apply sets skip and limit on the find options. A zero limit means no limit.
func (p Pagination) Apply(opts *options.FindOptions) *options.FindOptions {
	if p.Offset > 0 {
		opts.SetSkip(int64(p.Offset))
	}
	if p.Limit > 0 {
		opts.SetLimit(int64(p.Limit))
	}
	return opts
}

type Sort struct {
	Attribute string
	Ascending bool
}

func (s *Sort) Order() int {
	if s.Ascending {
		return 1
	}
	return -1
}

func NewDbContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), ContextTimeout)
}
