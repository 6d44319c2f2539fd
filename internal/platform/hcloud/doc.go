// Package hcloud wraps the Hetzner Cloud API with the operations the
// cluster coordinator needs: servers, networks, firewalls, load
// balancers and their server targets, SSH keys and label based cleanup.
//
// # Idempotency
//
// Every Ensure call first looks the resource up by name and only creates
// it when missing, so apply can be rerun after any failure. Deletes
// succeed for resources that are already gone and retry while a resource
// is locked or still referenced.
//
// # Servers on the private network
//
// Servers that need a fixed private IP are created stopped, attached to
// the network with that IP and only then powered on, so the node agent
// never boots without its address.
//
// # Load balancer targets
//
// Load balancers register servers as direct targets reached over the
// private network. ListServerTargets, AddServerTarget and
// RemoveServerTarget form the TargetManager used to keep a target pool
// in sync with the nodes that actually joined. Adding a target twice or
// removing one that is absent is not an error.
//
// # Timeouts
//
// Timeouts and retry parameters come from config.LoadTimeouts and can be
// overridden with WithTimeouts:
//
//   - HCLOUD_TIMEOUT_SERVER_CREATE: Server creation timeout (default: 10m)
//   - HCLOUD_TIMEOUT_DELETE: Resource deletion timeout (default: 5m)
//   - HCLOUD_TIMEOUT_ACTION: Action completion timeout (default: 5m)
//   - HCLOUD_RETRY_MAX_ATTEMPTS: Maximum retry attempts (default: 5)
//   - HCLOUD_RETRY_INITIAL_DELAY: Initial retry delay (default: 1s)
//
// # Example Usage
//
//	client := hcloud.NewRealClient(token)
//
//	server, err := client.CreateServer(ctx, hcloud.ServerCreateOpts{
//	    Name:       "demo-worker-1",
//	    Image:      "ubuntu-24.04",
//	    ServerType: "cx32",
//	    Location:   "nbg1",
//	    SSHKeys:    []string{"demo"},
//	    Labels:     labels.NewLabelBuilder("demo").WithRole(labels.RoleWorker).WithIndex(0).Build(),
//	    UserData:   userData,
//	    NetworkID:  network.ID,
//	    PrivateIP:  "10.0.2.10",
//	})
package hcloud
