package commands

import (
	"sheldon-client/domain/core/entities"
	"sheldon-client/domain/core/valueobjects"
	"sheldon-client/domain/schema"
	pkgerrors "sheldon-client/pkg/errors"
	"sheldon-client/pkg/utils"
)

// CreateNodeCommand asks the backend for a new node of Type
type CreateNodeCommand struct {
	Type    string           `json:"type" validate:"required"`
	Payload entities.Payload `json:"payload"`
}

// CreateConnectionCommand asks the backend for a new connection From -> To
type CreateConnectionCommand struct {
	Type    string           `json:"type" validate:"required"`
	From    valueobjects.Ref `json:"from" validate:"required"`
	To      valueobjects.Ref `json:"to" validate:"required"`
	Payload entities.Payload `json:"payload"`
}

// Validate checks required fields and, given a schema, that the node type is
// declared. It runs before any request is sent.
func (c CreateNodeCommand) Validate(s *schema.Schema) error {
	if err := utils.ValidateStruct(c); err != nil {
		return err
	}
	if s != nil && !s.HasNodeType(c.Type) {
		return pkgerrors.NewValidationErrorf("unknown node type %s", c.Type).
			WithDetails(map[string]interface{}{"known": s.NodeTypes()})
	}
	return nil
}

// Validate checks required fields, that both ends are persisted and, given a
// schema, that the connection type is declared.
func (c CreateConnectionCommand) Validate(s *schema.Schema) error {
	if err := utils.ValidateStruct(c); err != nil {
		return err
	}
	if c.From.RefID() <= 0 {
		return pkgerrors.NewValidationError("you must specify the source node")
	}
	if c.To.RefID() <= 0 {
		return pkgerrors.NewValidationError("you must specify the target node")
	}
	if s != nil && !s.HasConnectionType(c.Type) {
		return pkgerrors.NewValidationErrorf("unknown connection type %s", c.Type).
			WithDetails(map[string]interface{}{"known": s.ConnectionTypes()})
	}
	return nil
}

// Body is the JSON object sent for the new connection. A missing payload is
// sent as an empty object.
func (c CreateConnectionCommand) Body() entities.Payload {
	if c.Payload == nil {
		return entities.Payload{}
	}
	return c.Payload
}

// Body is the JSON object sent for the new node
func (c CreateNodeCommand) Body() entities.Payload {
	if c.Payload == nil {
		return entities.Payload{}
	}
	return c.Payload
}
