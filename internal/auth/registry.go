// Package auth maps bearer tokens to agent identities. Exactly one token is
// live per identity; re-issuing rotates the old one out.
package auth

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
	"sync"
)

type Credential struct {
	AgentID string
	Name    string
	Token   string
}

// Registry is safe for concurrent use: token validation may run alongside
// world mutation and only needs to serialize with its own rotation/revocation.
type Registry struct {
	mu      sync.RWMutex
	byToken map[string]Credential
	byAgent map[string]string // agent id -> live token
}

func NewRegistry() *Registry {
	return &Registry{
		byToken: map[string]Credential{},
		byAgent: map[string]string{},
	}
}

// Issue generates a fresh token for the agent, invalidating any prior one.
func (r *Registry) Issue(agentID, name string) string {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand failure is unrecoverable for credential issuance.
		panic(err)
	}
	token := "sk-" + hex.EncodeToString(buf)

	r.mu.Lock()
	defer r.mu.Unlock()
	if old, ok := r.byAgent[agentID]; ok {
		delete(r.byToken, old)
	}
	r.byToken[token] = Credential{AgentID: agentID, Name: name, Token: token}
	r.byAgent[agentID] = token
	return token
}

// Validate resolves a bearer token to its credential.
func (r *Registry) Validate(token string) (Credential, bool) {
	token = strings.TrimSpace(token)
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.byToken[token]
	return c, ok
}

// Revoke removes the agent's live token, if any.
func (r *Registry) Revoke(agentID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if token, ok := r.byAgent[agentID]; ok {
		delete(r.byToken, token)
		delete(r.byAgent, agentID)
	}
}
