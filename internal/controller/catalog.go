package controller

import (
	"github.com/suteetoe/bizledger/internal/model"
	"github.com/suteetoe/bizledger/internal/store"
)

// NewEmployees creates the employees controller
func NewEmployees(s *store.Store) *Resource[model.Employee] {
	return NewResource(s, model.CollectionEmployees, "employee", Hooks[model.Employee]{
		Describe: func(e model.Employee) string { return e.Name },
	})
}

// NewPartners creates the partners controller
func NewPartners(s *store.Store) *Resource[model.Partner] {
	return NewResource(s, model.CollectionPartners, "partner", Hooks[model.Partner]{
		Describe: func(p model.Partner) string { return p.Name },
	})
}
