// Package k8s grants and revokes namespace access on the workload cluster
// by creating/deleting a RoleBinding per (namespace, subject).
package k8s

import (
	"context"
	"fmt"

	rbacv1 "k8s.io/api/rbac/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
)

// Client grants and revokes namespace-scoped RBAC access for principals.
type Client struct {
	clientset kubernetes.Interface
}

// NewClient builds a Client from kubeconfigPath. An empty path uses the
// in-cluster service account, the way a workload running inside the
// cluster authenticates.
func NewClient(kubeconfigPath string) (*Client, error) {
	var restConfig *rest.Config
	var err error
	if kubeconfigPath == "" {
		restConfig, err = rest.InClusterConfig()
	} else {
		restConfig, err = clientcmd.BuildConfigFromFlags("", kubeconfigPath)
	}
	if err != nil {
		return nil, fmt.Errorf("building kubernetes client config: %w", err)
	}

	clientset, err := kubernetes.NewForConfig(restConfig)
	if err != nil {
		return nil, fmt.Errorf("building kubernetes clientset: %w", err)
	}
	return &Client{clientset: clientset}, nil
}

// roleBindingName is deterministic per (namespace, subjectType, subjectID)
// so granting twice is a no-op and revoking is a direct lookup, not a list
// scan.
func roleBindingName(subjectType, subjectID string) string {
	return fmt.Sprintf("frnctl-access-%s-%s", subjectType, subjectID)
}

// GrantNamespaceAccess binds subjectID (a User or ServiceAccount, per
// subjectType/subjectKind) to clusterRole within namespace. Granting a
// subject that already holds the binding updates it in place rather than
// erroring.
func (c *Client) GrantNamespaceAccess(ctx context.Context, namespace, subjectType, subjectID, clusterRole string) error {
	rb := &rbacv1.RoleBinding{
		ObjectMeta: metav1.ObjectMeta{
			Name:      roleBindingName(subjectType, subjectID),
			Namespace: namespace,
			Labels: map[string]string{
				"frnctl.io/managed-by":   "controlplane",
				"frnctl.io/subject-type": subjectType,
				"frnctl.io/subject-id":   subjectID,
			},
		},
		RoleRef: rbacv1.RoleRef{
			APIGroup: rbacv1.GroupName,
			Kind:     "ClusterRole",
			Name:     clusterRole,
		},
		Subjects: []rbacv1.Subject{
			{
				Kind:     subjectKind(subjectType),
				APIGroup: rbacv1.GroupName,
				Name:     subjectID,
			},
		},
	}

	bindings := c.clientset.RbacV1().RoleBindings(namespace)
	_, err := bindings.Create(ctx, rb, metav1.CreateOptions{})
	if apierrors.IsAlreadyExists(err) {
		existing, getErr := bindings.Get(ctx, rb.Name, metav1.GetOptions{})
		if getErr != nil {
			return fmt.Errorf("fetching existing role binding: %w", getErr)
		}
		existing.RoleRef = rb.RoleRef
		existing.Subjects = rb.Subjects
		_, err = bindings.Update(ctx, existing, metav1.UpdateOptions{})
	}
	if err != nil {
		return fmt.Errorf("creating role binding: %w", err)
	}
	return nil
}

// RevokeNamespaceAccess removes the binding granted by GrantNamespaceAccess.
// Revoking a subject with no existing binding is not an error.
func (c *Client) RevokeNamespaceAccess(ctx context.Context, namespace, subjectType, subjectID string) error {
	err := c.clientset.RbacV1().RoleBindings(namespace).Delete(ctx, roleBindingName(subjectType, subjectID), metav1.DeleteOptions{})
	if apierrors.IsNotFound(err) {
		return nil
	}
	return err
}

// IsNotFound reports whether err is a Kubernetes API "not found" response.
func IsNotFound(err error) bool {
	return apierrors.IsNotFound(err)
}

func subjectKind(subjectType string) string {
	if subjectType == "service_account" {
		return rbacv1.ServiceAccountKind
	}
	return rbacv1.UserKind
}
