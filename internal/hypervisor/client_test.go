package hypervisor

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/France-Nuage/plateforme-sub000/internal/apperr"
)

func TestClusterNextID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api2/json/cluster/nextid" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"data": "142"})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "PVEAPIToken=test", VMConfigDefaults{})
	id, err := client.ClusterNextID(t.Context())
	if err != nil {
		t.Fatalf("ClusterNextID() error = %v", err)
	}
	if id != 142 {
		t.Errorf("ClusterNextID() = %d, want 142", id)
	}
}

func TestVMStatusRead(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"data": map[string]string{"status": "running"}})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "PVEAPIToken=test", VMConfigDefaults{})
	status, err := client.VMStatusRead(t.Context(), "pve1", 101)
	if err != nil {
		t.Fatalf("VMStatusRead() error = %v", err)
	}
	if status.Status != StatusRunning {
		t.Errorf("Status = %s, want running", status.Status)
	}
}

func TestVMCreateInvalidRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"message": "vmid already in use"})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "PVEAPIToken=test", VMConfigDefaults{})
	_, err := client.VMCreate(t.Context(), "pve1", VMConfig{VMID: 101, Name: "test"})
	if err == nil {
		t.Fatal("VMCreate() error = nil, want HypervisorInvalidRequest")
	}
	appErr, ok := apperr.As(err)
	if !ok || appErr.Code != "HypervisorInvalidRequest" {
		t.Errorf("error = %v, want HypervisorInvalidRequest", err)
	}
}

func TestVMCreateAppliesStorageDefaults(t *testing.T) {
	var gotSCSI0, gotCiCustom string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var config VMConfig
		_ = json.NewDecoder(r.Body).Decode(&config)
		gotSCSI0 = config.SCSI0
		gotCiCustom = config.CiCustom
		_ = json.NewEncoder(w).Encode(map[string]string{"data": "UPID:pve1:task"})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "PVEAPIToken=test", VMConfigDefaults{
		ImageStorage:    "local-zfs",
		SnippetsStorage: "local",
	})
	task, err := client.VMCreate(t.Context(), "pve1", VMConfig{VMID: 101, Name: "test"})
	if err != nil {
		t.Fatalf("VMCreate() error = %v", err)
	}
	if task != "UPID:pve1:task" {
		t.Errorf("task = %s, want UPID:pve1:task", task)
	}
	if gotSCSI0 != "local-zfs:32" {
		t.Errorf("scsi0 = %s, want local-zfs:32", gotSCSI0)
	}
	if gotCiCustom == "" {
		t.Error("cicustom = \"\", want snippets default applied")
	}
}

func TestWaitForTaskCompletionSucceeds(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		status := "running"
		exit := ""
		if calls >= 2 {
			status = "stopped"
			exit = "OK"
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]string{"status": status, "exitstatus": exit},
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "PVEAPIToken=test", VMConfigDefaults{})
	result, err := client.WaitForTaskCompletion(t.Context(), "pve1", TaskID("UPID:pve1:task"))
	if err != nil {
		t.Fatalf("WaitForTaskCompletion() error = %v", err)
	}
	if result.Status != TaskOK {
		t.Errorf("Status = %s, want ok", result.Status)
	}
}

func TestGetVMExecutionNode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": []Resource{
				{ResourceType: ResourceQemu, VMID: 101, Node: "pve1"},
				{ResourceType: ResourceQemu, VMID: 102, Node: "pve2"},
			},
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "PVEAPIToken=test", VMConfigDefaults{})
	node, err := client.GetVMExecutionNode(t.Context(), 102)
	if err != nil {
		t.Fatalf("GetVMExecutionNode() error = %v", err)
	}
	if node != "pve2" {
		t.Errorf("node = %s, want pve2", node)
	}
}
