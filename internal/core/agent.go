package core

import "fmt"

// AgentSpec identifies a single role-instance: {role_id}#{instance}.
type AgentSpec struct {
	Name      string // "{role_id}#{instance}"
	RoleLabel string
}

// NewAgentSpec builds the canonical "{role}#{instance}" label.
func NewAgentSpec(roleID RoleID, instance int, roleLabel string) AgentSpec {
	return AgentSpec{
		Name:      fmt.Sprintf("%s#%d", roleID, instance),
		RoleLabel: roleLabel,
	}
}

// AgentResult is the outcome of one subprocess invocation.
type AgentResult struct {
	Agent      AgentSpec
	ReturnCode int
	Stdout     string
	Stderr     string
	OutFile    string
	Attempts   int
}

// Ok reports success: returncode == 0.
func (r AgentResult) Ok() bool {
	return r.ReturnCode == 0
}
