// Package registry holds the set of configured capability servers.
//
// New validates and copies the descriptors and creates one Disconnected
// session per server. ConnectAll drives every session to Ready in parallel;
// each server's outcome is independent, so one unreachable server never
// hides the others:
//
//	reg, err := registry.New(cfg.Servers)
//	if err != nil {
//	    return err
//	}
//	for name, err := range reg.ConnectAll(ctx) {
//	    if err != nil {
//	        logging.Warn("Registry", "server %s unavailable: %v", name, err)
//	    }
//	}
package registry
