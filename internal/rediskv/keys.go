package rediskv

import "fmt"

// Redis key pattern helpers.
//
// All keys are namespaced so several deployments can share one Redis server.
//
// Key pattern: sdctrack:{namespace}:{kind}:{name}[:{id}]

// StateKey returns the key holding one entity state as JSON.
// Pattern: sdctrack:{namespace}:state:{entity}:{id}
func StateKey(namespace, entity, id string) string {
	return fmt.Sprintf("sdctrack:%s:state:%s:%s", namespace, entity, id)
}

// StateSetKey returns the key of the set of ids with stored state.
// Pattern: sdctrack:{namespace}:states:{entity}
func StateSetKey(namespace, entity string) string {
	return fmt.Sprintf("sdctrack:%s:states:%s", namespace, entity)
}

// IndexKey returns the sorted set holding an index, scored by insertion
// sequence.
// Pattern: sdctrack:{namespace}:index:{index}
func IndexKey(namespace, index string) string {
	return fmt.Sprintf("sdctrack:%s:index:%s", namespace, index)
}

// IndexSeqKey returns the counter that hands out index sequence numbers.
// Pattern: sdctrack:{namespace}:indexseq:{index}
func IndexSeqKey(namespace, index string) string {
	return fmt.Sprintf("sdctrack:%s:indexseq:%s", namespace, index)
}

// LockKey returns the key of a lease taken through Backend.LockKey.
// Pattern: sdctrack:{namespace}:lock:{key}
func LockKey(namespace, key string) string {
	return fmt.Sprintf("sdctrack:%s:lock:%s", namespace, key)
}
