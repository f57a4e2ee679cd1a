package core

// IDGenerator produces unique, roughly time-ordered int64 ids for domain
// entities. The production adapter wraps a snowflake node.
type IDGenerator interface {
	NextID() int64
}
