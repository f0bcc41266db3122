// Package authz talks to the external relationship-based authorization
// server: a tuple store plus policy evaluator reachable over gRPC. Every
// exported call resolves to a Checker method; callers never see the wire
// types.
package authz

import (
	"context"
	"errors"
	"fmt"
	"io"

	v1 "github.com/authzed/authzed-go/proto/authzed/api/v1"
	"github.com/authzed/authzed-go/v1"
	"github.com/authzed/grpcutil"
	"google.golang.org/grpc"

	"github.com/France-Nuage/plateforme-sub000/internal/apperr"
)

// Tuple is one relationship row: subject_type:subject_id has relation on
// object_type:object_id.
type Tuple struct {
	ObjectType  string
	ObjectID    string
	Relation    string
	SubjectType string
	SubjectID   string
}

// Checker is the interface production code depends on. Client satisfies it
// against a live server; Mock satisfies it in tests.
type Checker interface {
	Check(ctx context.Context, subjectType, subjectID, permission, objectType, objectID string) (bool, error)
	Lookup(ctx context.Context, subjectType, subjectID, permission, objectType string) ([]string, error)
	Write(ctx context.Context, t Tuple) error
	Delete(ctx context.Context, t Tuple) error
}

// Client is a long-lived channel to the authorization server. It is safe
// for concurrent use and is shared across every worker and RPC handler in
// the process rather than dialed per call.
type Client struct {
	perms v1.PermissionsServiceClient
}

// Connect dials url with a token-injecting interceptor. The connection is
// plaintext-or-TLS depending on useTLS; internal deployments typically run
// the authorization server on a private network segment without TLS.
func Connect(url, presharedKey string, useTLS bool) (*Client, error) {
	var opts []grpc.DialOption
	if useTLS {
		systemCerts, err := grpcutil.WithSystemCerts(grpcutil.VerifyCA)
		if err != nil {
			return nil, fmt.Errorf("loading system cert pool: %w", err)
		}
		opts = append(opts, grpcutil.WithBearerToken(presharedKey), systemCerts)
	} else {
		opts = append(opts, grpcutil.WithInsecureBearerToken(presharedKey))
	}

	conn, err := authzed.NewClient(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("connecting to authorization server: %w", err)
	}
	return &Client{perms: conn.PermissionsServiceClient}, nil
}

// Check reports whether subject holds permission on the named object.
func (c *Client) Check(ctx context.Context, subjectType, subjectID, permission, objectType, objectID string) (bool, error) {
	resp, err := c.perms.CheckPermission(ctx, &v1.CheckPermissionRequest{
		Resource:   &v1.ObjectReference{ObjectType: objectType, ObjectId: objectID},
		Permission: permission,
		Subject: &v1.SubjectReference{
			Object: &v1.ObjectReference{ObjectType: subjectType, ObjectId: subjectID},
		},
	})
	if err != nil {
		return false, apperr.AuthorizationServerError(err.Error())
	}

	switch resp.Permissionship {
	case v1.CheckPermissionResponse_PERMISSIONSHIP_HAS_PERMISSION:
		return true, nil
	case v1.CheckPermissionResponse_PERMISSIONSHIP_NO_PERMISSION:
		return false, nil
	default:
		return false, apperr.AuthorizationServerError(fmt.Sprintf("unhandled permissionship %v", resp.Permissionship))
	}
}

// Lookup returns every object_id of objectType that subject holds
// permission on.
func (c *Client) Lookup(ctx context.Context, subjectType, subjectID, permission, objectType string) ([]string, error) {
	stream, err := c.perms.LookupResources(ctx, &v1.LookupResourcesRequest{
		ResourceObjectType: objectType,
		Permission:         permission,
		Subject: &v1.SubjectReference{
			Object: &v1.ObjectReference{ObjectType: subjectType, ObjectId: subjectID},
		},
	})
	if err != nil {
		return nil, apperr.AuthorizationServerError(err.Error())
	}

	var ids []string
	for {
		resp, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, apperr.AuthorizationServerError(err.Error())
		}
		ids = append(ids, resp.ResourceObjectId)
	}
	return ids, nil
}

// Write upserts one relationship tuple.
func (c *Client) Write(ctx context.Context, t Tuple) error {
	_, err := c.perms.WriteRelationships(ctx, &v1.WriteRelationshipsRequest{
		Updates: []*v1.RelationshipUpdate{tupleUpdate(v1.RelationshipUpdate_OPERATION_TOUCH, t)},
	})
	if err != nil {
		return apperr.AuthorizationServerError(err.Error())
	}
	return nil
}

// Delete removes one relationship tuple. Deleting a tuple that does not
// exist is not an error — the operation is idempotent.
func (c *Client) Delete(ctx context.Context, t Tuple) error {
	_, err := c.perms.WriteRelationships(ctx, &v1.WriteRelationshipsRequest{
		Updates: []*v1.RelationshipUpdate{tupleUpdate(v1.RelationshipUpdate_OPERATION_DELETE, t)},
	})
	if err != nil {
		return apperr.AuthorizationServerError(err.Error())
	}
	return nil
}

func tupleUpdate(op v1.RelationshipUpdate_Operation, t Tuple) *v1.RelationshipUpdate {
	return &v1.RelationshipUpdate{
		Operation: op,
		Relationship: &v1.Relationship{
			Resource: &v1.ObjectReference{ObjectType: t.ObjectType, ObjectId: t.ObjectID},
			Relation: t.Relation,
			Subject: &v1.SubjectReference{
				Object: &v1.ObjectReference{ObjectType: t.SubjectType, ObjectId: t.SubjectID},
			},
		},
	}
}
