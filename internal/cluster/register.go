package cluster

import (
	"fmt"
	"log"
	"os"

	consul "github.com/hashicorp/consul/api"
)

// RegisterService announces this arcade instance in Consul with an HTTP
// health check. consulAddr may be empty, in which case registration is
// skipped entirely; the server is fully functional without a cluster.
func RegisterService(consulAddr, serviceName string, servicePort, healthPort int) error {
	if consulAddr == "" {
		log.Println("[Cluster] no consul address configured, skipping registration")
		return nil
	}

	config := consul.DefaultConfig()
	config.Address = consulAddr

	client, err := consul.NewClient(config)
	if err != nil {
		return fmt.Errorf("creating consul client: %w", err)
	}

	hostname := os.Getenv("HOSTNAME")
	if hostname == "" {
		hostname, _ = os.Hostname()
	}
	serviceID := fmt.Sprintf("%s-%s", serviceName, hostname)

	registration := &consul.AgentServiceRegistration{
		ID:   serviceID,
		Name: serviceName,
		Port: servicePort,
		Check: &consul.AgentServiceCheck{
			HTTP:     fmt.Sprintf("http://%s:%d/health", hostname, healthPort),
			Timeout:  "5s",
			Interval: "10s",
			// Drop the instance from the catalog if it stays critical; a
			// crashed game server has nothing worth routing to.
			DeregisterCriticalServiceAfter: "1m",
		},
	}

	if err := client.Agent().ServiceRegister(registration); err != nil {
		return fmt.Errorf("registering service: %w", err)
	}

	log.Printf("[Cluster] service %q registered in consul with id %s", serviceName, serviceID)
	return nil
}
