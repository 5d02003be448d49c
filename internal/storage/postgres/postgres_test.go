package postgres

import (
	"reflect"
	"strings"
	"testing"
)

func clearPGEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"PGHOST", "PGPORT", "PGUSER", "PGDATABASE", "PGSSLMODE", "PGPASSWORD"} {
		t.Setenv(k, "")
	}
}

func TestConnString(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		opts Options
		want string
	}{
		{
			name: "defaults",
			want: "host=127.0.0.1 port=5432 user=blindengine dbname=blindengine sslmode=disable",
		},
		{
			name: "explicit options",
			opts: Options{Host: "db", Port: 6543, User: "verifier", Database: "ledger", Password: "pw", SSLMode: "require"},
			want: "host=db port=6543 user=verifier password=pw dbname=ledger sslmode=require",
		},
		{
			name: "environment fallback",
			env:  map[string]string{"PGHOST": "envhost", "PGPORT": "7000", "PGPASSWORD": "envpw"},
			opts: Options{User: "verifier"},
			want: "host=envhost port=7000 user=verifier password=envpw dbname=blindengine sslmode=disable",
		},
		{
			name: "options win over environment",
			env:  map[string]string{"PGHOST": "envhost"},
			opts: Options{Host: "opthost"},
			want: "host=opthost port=5432 user=blindengine dbname=blindengine sslmode=disable",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearPGEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if got := tt.opts.ConnString(); got != tt.want {
				t.Errorf("got %q\nwant %q", got, tt.want)
			}
		})
	}
}

func TestClampLimit(t *testing.T) {
	tests := map[int]int{0: 200, -5: 200, 50: 50, 10000: 10000, 20000: 10000}
	for in, want := range tests {
		if got := clampLimit(in); got != want {
			t.Errorf("clampLimit(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestBuildEventQuery(t *testing.T) {
	tests := []struct {
		name      string
		q         EventQuery
		wantWhere string
		wantArgs  []interface{}
	}{
		{
			name:      "engine only",
			wantWhere: "WHERE engine_id = $1 ORDER BY ts DESC LIMIT $2",
			wantArgs:  []interface{}{"lab", 200},
		},
		{
			name:      "prefix and session",
			q:         EventQuery{Limit: 5, Prefix: "trap.", SessionID: "s1"},
			wantWhere: "WHERE engine_id = $1 AND event LIKE $2 AND session_id = $3 ORDER BY ts DESC LIMIT $4",
			wantArgs:  []interface{}{"lab", "trap.%", "s1", 5},
		},
		{
			name:      "wildcards escaped",
			q:         EventQuery{Prefix: "a_b%"},
			wantWhere: "WHERE engine_id = $1 AND event LIKE $2 ORDER BY ts DESC LIMIT $3",
			wantArgs:  []interface{}{"lab", `a\_b\%%`, 200},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query, args := buildEventQuery("lab", tt.q)
			if !strings.HasSuffix(query, tt.wantWhere) {
				t.Errorf("query %q does not end with %q", query, tt.wantWhere)
			}
			if !reflect.DeepEqual(args, tt.wantArgs) {
				t.Errorf("args = %v, want %v", args, tt.wantArgs)
			}
		})
	}
}

func TestMigrationsAreOrdered(t *testing.T) {
	if SchemaVersion() != len(migrations) || SchemaVersion() < 2 {
		t.Fatalf("unexpected schema version %d", SchemaVersion())
	}
	if !strings.Contains(migrations[0], "CREATE TABLE IF NOT EXISTS events") {
		t.Error("first step must create the events table")
	}
	if !strings.Contains(migrations[1], "UNIQUE (session_id, round)") {
		t.Error("rounds must be unique per session")
	}
	for i, m := range migrations {
		if strings.TrimSpace(m) == "" {
			t.Errorf("step %d is empty", i+1)
		}
	}
}
