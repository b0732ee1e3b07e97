package scenario

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Step operations.
const (
	OpRegister  = "register"
	OpPropagate = "propagate"
	OpRollback  = "rollback"
	OpValidate  = "validate"
	OpTamper    = "tamper"
)

// Expectations. An empty Expect is never checked.
const (
	ExpectOK      = "ok"
	ExpectError   = "error"
	ExpectApplied = "applied"
	ExpectIgnored = "ignored"
	ExpectValid   = "valid"
	ExpectInvalid = "invalid"
)

// Scenario is a parsed scenario file.
type Scenario struct {
	Name       string      `yaml:"name"`
	Subsystems []Subsystem `yaml:"subsystems"`
	Steps      []Step      `yaml:"steps"`
}

// Subsystem is registered before the first step.
type Subsystem struct {
	ID      string         `yaml:"id"`
	Payload map[string]any `yaml:"payload"`

	// Require installs a validator demanding these top-level keys.
	Require []string `yaml:"require"`

	// Deferred makes the validator answer from its own goroutine.
	Deferred bool `yaml:"deferred"`
}

// Step is one coordinator call.
type Step struct {
	Op   string `yaml:"op"`
	Name string `yaml:"name"`

	// propagate
	Source      string         `yaml:"source"`
	Targets     []string       `yaml:"targets"`
	Payload     map[string]any `yaml:"payload"`
	OperationID string         `yaml:"operation_id"`

	// rollback: Ref names an earlier propagate step; OperationID may be
	// used instead.
	Ref string `yaml:"ref"`

	// register, validate, tamper
	Subsystem string `yaml:"subsystem"`

	// tamper: keys written straight into the stored payload
	Set map[string]any `yaml:"set"`

	Expect string `yaml:"expect"`
}

var expectations = map[string][]string{
	OpRegister:  {ExpectOK, ExpectError},
	OpPropagate: {ExpectOK, ExpectError},
	OpRollback:  {ExpectApplied, ExpectIgnored},
	OpValidate:  {ExpectValid, ExpectInvalid},
	OpTamper:    {ExpectOK, ExpectError},
}

// Load reads and checks a scenario file.
func Load(path string) (*Scenario, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(f)
}

// Parse decodes and checks a scenario. Unknown fields are rejected.
func Parse(r io.Reader) (*Scenario, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var s Scenario
	if err := dec.Decode(&s); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("scenario: empty document")
		}
		return nil, fmt.Errorf("scenario: %w", err)
	}
	if err := s.check(); err != nil {
		return nil, err
	}
	return &s, nil
}

func (s *Scenario) check() error {
	ids := make(map[string]bool, len(s.Subsystems))
	for i, sub := range s.Subsystems {
		if sub.ID == "" {
			return fmt.Errorf("scenario: subsystems[%d]: id is required", i)
		}
		ids[sub.ID] = true
	}

	names := make(map[string]bool)
	for i, st := range s.Steps {
		allowed, ok := expectations[st.Op]
		if !ok {
			return fmt.Errorf("scenario: steps[%d]: unknown op %q", i, st.Op)
		}
		if st.Expect != "" && !contains(allowed, st.Expect) {
			return fmt.Errorf("scenario: steps[%d]: %s cannot expect %q", i, st.Op, st.Expect)
		}

		switch st.Op {
		case OpPropagate:
			if st.Source == "" {
				return fmt.Errorf("scenario: steps[%d]: propagate needs a source", i)
			}
		case OpRollback:
			if st.Ref == "" && st.OperationID == "" {
				return fmt.Errorf("scenario: steps[%d]: rollback needs ref or operation_id", i)
			}
			if st.Ref != "" && !names[st.Ref] {
				return fmt.Errorf("scenario: steps[%d]: ref %q does not name an earlier step", i, st.Ref)
			}
		case OpRegister, OpValidate, OpTamper:
			if st.Subsystem == "" {
				return fmt.Errorf("scenario: steps[%d]: %s needs a subsystem", i, st.Op)
			}
		}

		if st.Name != "" {
			if names[st.Name] {
				return fmt.Errorf("scenario: steps[%d]: duplicate name %q", i, st.Name)
			}
			names[st.Name] = true
		}
	}
	return nil
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
