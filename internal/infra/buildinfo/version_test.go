package buildinfo

import (
	"runtime"
	"strings"
	"testing"
)

func TestGet(t *testing.T) {
	info := Get()

	if info.Version == "" || info.Commit == "" || info.BuildTime == "" {
		t.Errorf("Get() = %+v, want every field populated", info)
	}
	if info.GoVersion != runtime.Version() {
		t.Errorf("GoVersion = %q, want %q", info.GoVersion, runtime.Version())
	}
}

func TestGet_LdflagsWin(t *testing.T) {
	saved := Commit
	defer func() { Commit = saved }()

	Commit = "abc1234"
	if got := Get().Commit; got != "abc1234" {
		t.Errorf("Commit = %q, want ldflags value", got)
	}
}

func TestString(t *testing.T) {
	s := String()
	i := Get()
	if s != i.Version+" ("+i.Commit+") built at "+i.BuildTime {
		t.Errorf("String() = %q", s)
	}
	if !strings.Contains(s, " built at ") {
		t.Errorf("String() = %q", s)
	}
}

func TestShortRevision(t *testing.T) {
	if got := shortRevision("0123456789abcdef0123"); got != "0123456789ab" {
		t.Errorf("shortRevision = %q", got)
	}
	if got := shortRevision("abc"); got != "abc" {
		t.Errorf("shortRevision = %q", got)
	}
}
