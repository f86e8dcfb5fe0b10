// Package storagemgr is the top-level handle an application opens: it binds
// configuration, the type dictionary, the channel manager, the housekeeping
// scheduler, and persistence of the root object id into one lifecycle.
//
// Grounded on the teacher's pkg/manager/manager.go composition root: Open
// constructs each subsystem in dependency order (blob connector, type
// dictionary, channel manager, housekeeping scheduler, event broker) the same
// way NewManager builds store, fsm, tokenManager, secretsManager, ca, and
// eventBroker in sequence before returning a ready *Manager.
package storagemgr
