package tools

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/AbdelilahOu/simplesql/internal/config"
	"github.com/AbdelilahOu/simplesql/internal/state"
	"github.com/AbdelilahOu/simplesql/pkg/simplesql"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const statementTimeout = 30 * time.Second

var errReadOnly = errors.New("read-only mode: write operations are not allowed")

// Deps is what every tool handler works against.
type Deps struct {
	Config   *config.Config
	Sessions *state.Registry
	ReadOnly bool
	// ServerOptions are applied to every Server opened by connect.
	ServerOptions []simplesql.Option
}

func RegisterTools(s *mcp.Server, deps *Deps) {
	// Sessions
	GetConnectTool(deps).Register(s)
	GetDisconnectTool(deps).Register(s)
	GetListSessionsTool(deps).Register(s)

	// Lookups
	GetExistsDatabaseTool(deps).Register(s)
	GetExistsTableTool(deps).Register(s)
	GetListTablesTool(deps).Register(s)
	GetSelectRowsTool(deps).Register(s)
	GetExecuteSQLTool(deps).Register(s)

	if deps.ReadOnly {
		return
	}
	GetCreateDatabaseTool(deps).Register(s)
	GetDropDatabaseTool(deps).Register(s)
	GetCreateTableTool(deps).Register(s)
	GetDropTableTool(deps).Register(s)
	GetInsertRowsTool(deps).Register(s)
}

func (d *Deps) session(id string) (*state.Session, error) {
	if id == "" {
		return nil, fmt.Errorf("session_id is required; call connect first")
	}
	return d.Sessions.Get(id)
}

func (d *Deps) writable() error {
	if d.ReadOnly {
		return errReadOnly
	}
	return nil
}

// database picks the named database, or the one the session was opened
// against.
func database(s *state.Session, name string) (*simplesql.Database, error) {
	if name != "" {
		return simplesql.NewDatabase(s.Server, name)
	}
	if s.Database == nil {
		return nil, fmt.Errorf("no database selected: pass database or connect with one")
	}
	return s.Database, nil
}

func rowMaps(rows []simplesql.Row) []map[string]any {
	out := make([]map[string]any, len(rows))
	for i, r := range rows {
		out[i] = r.Map()
	}
	return out
}

// jsonValue turns whole JSON numbers back into integers so they bind as
// integer parameters.
func jsonValue(v any) any {
	f, ok := v.(float64)
	if !ok || f != math.Trunc(f) || math.Abs(f) > 1<<53 {
		return v
	}
	return int64(f)
}
