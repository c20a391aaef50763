package utilities

import (
	"os"
	"strconv"

	"github.com/bwmarrin/snowflake"
	"github.com/segmentio/ksuid"
)

// NewUserID generates a new KSUID string used as the primary key for user rows.
func NewUserID() string {
	return ksuid.New().String()
}

// NewTokenID generates a KSUID string used as the jti claim so two tokens
// minted within the same second never collide.
func NewTokenID() string {
	return ksuid.New().String()
}

// NewObjectID generates a snowflake ID string used for media object keys.
// The node ID comes from the SNOWFLAKE_NODE environment variable; node 1 is
// used when the variable is absent or malformed.
func NewObjectID() string {
	node := int64(1)
	if v := os.Getenv("SNOWFLAKE_NODE"); v != "" {
		if parsed, err := strconv.ParseInt(v, 10, 64); err == nil {
			node = parsed
		}
	}
	return newObjectIDWithNode(node)
}

func newObjectIDWithNode(nodeID int64) string {
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		// snowflake node init only fails on an out-of-range node ID;
		// fall back to a KSUID so callers still get a unique key
		return ksuid.New().String()
	}
	return node.Generate().String()
}
