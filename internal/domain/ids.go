// Package domain defines the core data model and collaborator interfaces
// for the room chat relay: room/user identifiers, the Event sum type, and
// the Store/Bus abstractions the protocol engine depends on.
package domain

import "github.com/google/uuid"

// RoomId identifies a chat room. There is no server-side registry; rooms are
// implicit and created the moment a client joins one.
type RoomId int32

// UserId is a client-chosen identifier, stable for the lifetime of a
// session. The server never validates uniqueness across sessions.
type UserId = uuid.UUID

// Timestamp is seconds since the Unix epoch, supplied by the client on every
// event. The server never overwrites it.
type Timestamp uint64

// Username is a UTF-8 string of at most 15 code points. The server does not
// enforce the limit; clients are expected to.
type Username string
