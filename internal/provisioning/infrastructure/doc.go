// Package infrastructure provisions cloud networking resources on Hetzner Cloud.
//
// It creates the private network with its control-plane, worker and load
// balancer subnets, the cluster firewall, and the two load balancers: the
// API load balancer in front of the control plane and the ingress load
// balancer in front of the workers. It then settles the name clients use
// for the API and, once servers exist, keeps both target pools in sync.
// All resources are created idempotently and labeled for cluster association.
package infrastructure
