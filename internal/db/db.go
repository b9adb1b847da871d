package db

// DB is a generic database port that keeps repositories independent of the
// concrete driver wiring.
type DB interface {
	Conn() any
}
