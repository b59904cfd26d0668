package registry

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	clientv3 "go.etcd.io/etcd/client/v3"

	"github.com/auto-dns/sysav-sync/internal/config"
	"github.com/auto-dns/sysav-sync/internal/domain"
)

type etcdClient interface {
	Get(ctx context.Context, key string, opts ...clientv3.OpOption) (*clientv3.GetResponse, error)
	Put(ctx context.Context, key, val string, opts ...clientv3.OpOption) (*clientv3.PutResponse, error)
	Delete(ctx context.Context, key string, opts ...clientv3.OpOption) (*clientv3.DeleteResponse, error)
	Grant(ctx context.Context, ttl int64) (*clientv3.LeaseGrantResponse, error)
	Txn(ctx context.Context) clientv3.Txn
	Revoke(ctx context.Context, id clientv3.LeaseID) (*clientv3.LeaseRevokeResponse, error)
	Close() error
}

type EtcdRegistry struct {
	client etcdClient
	cfg    *config.EtcdConfig
	owner  string
	logger zerolog.Logger
}

var _ Registry = (*EtcdRegistry)(nil)

// NewEtcdRegistry publishes under cfg.PathPrefix; owner is written as the lock
// holder and into every state document.
func NewEtcdRegistry(client etcdClient, cfg *config.EtcdConfig, owner string, logger zerolog.Logger) *EtcdRegistry {
	return &EtcdRegistry{
		client: client,
		cfg:    cfg,
		owner:  owner,
		logger: logger,
	}
}

// Publish stores the sensor state in etcd, replacing any previous value.
func (er *EtcdRegistry) Publish(ctx context.Context, s *domain.SensorState) error {
	value, err := marshalState(s, er.owner)
	if err != nil {
		return err
	}
	key := stateKey(er.cfg.PathPrefix, s.AddressID, s.CategoryKey)
	if _, err := er.client.Put(ctx, key, value); err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	er.logger.Debug().Msgf("[etcd_registry] Published %s", s.Render())
	return nil
}

// Remove deletes the etcd key of the sensor state.
func (er *EtcdRegistry) Remove(ctx context.Context, s *domain.SensorState) error {
	key := stateKey(er.cfg.PathPrefix, s.AddressID, s.CategoryKey)
	if _, err := er.client.Delete(ctx, key); err != nil {
		er.logger.Warn().Err(err).Msgf("[etcd_registry] Failed to delete key %s", key)
		return err
	}
	er.logger.Info().Msgf("[etcd_registry] Deleted key %s", key)
	return nil
}

// List retrieves all sensor states stored for an address.
func (er *EtcdRegistry) List(ctx context.Context, addressID string) ([]*domain.SensorState, error) {
	resp, err := er.client.Get(ctx, addressKeyPrefix(er.cfg.PathPrefix, addressID), clientv3.WithPrefix())
	if err != nil {
		return nil, err
	}
	var states []*domain.SensorState
	for _, kv := range resp.Kvs {
		keyStr := string(kv.Key)
		keyAddress, category, ok := parseStateKey(er.cfg.PathPrefix, keyStr)
		if !ok || keyAddress != addressID {
			er.logger.Warn().Msgf("[etcd_registry] Ignoring unexpected key: %s", keyStr)
			continue
		}
		s, err := unmarshalState(keyAddress, category, string(kv.Value))
		if err != nil {
			er.logger.Error().Err(err).Msgf("[etcd_registry] Failed to parse key: %s", keyStr)
			continue
		}
		states = append(states, s)
	}
	return states, nil
}

// LockTransaction provides a distributed lock using etcd transactions.
// It takes keys (as a slice of string), tries to acquire locks on all of them,
// runs the function, and finally releases all locks.
func (er *EtcdRegistry) LockTransaction(ctx context.Context, keys []string, fn func() error) error {
	leases := make([]heldLease, 0, len(keys))
	defer func() {
		// Release the locks in reverse order.
		releaseCtx := context.WithoutCancel(ctx)
		for i := len(leases) - 1; i >= 0; i-- {
			er.release(releaseCtx, leases[i])
		}
	}()

	for _, key := range keys {
		held, err := er.acquire(ctx, key)
		if err != nil {
			return err
		}
		leases = append(leases, held)
	}

	// Execute the provided function with locks held.
	return fn()
}

func (er *EtcdRegistry) acquire(ctx context.Context, key string) (heldLease, error) {
	lockKey := fmt.Sprintf("%s/locks/%s", er.cfg.PathPrefix, key)
	leaseResp, err := er.client.Grant(ctx, int64(er.cfg.LockTTL))
	if err != nil {
		return heldLease{}, fmt.Errorf("failed to create lease: %w", err)
	}

	deadline := time.Now().Add(time.Duration(er.cfg.LockTimeout * float64(time.Second)))
	for {
		txnResp, err := er.client.Txn(ctx).
			If(clientv3.Compare(clientv3.CreateRevision(lockKey), "=", 0)).
			Then(clientv3.OpPut(lockKey, er.owner, clientv3.WithLease(leaseResp.ID))).
			Commit()
		if err != nil {
			er.revoke(ctx, lockKey, leaseResp.ID)
			return heldLease{}, err
		}
		if txnResp.Succeeded {
			return heldLease{lockKey: lockKey, lease: leaseResp.ID}, nil
		}
		if time.Now().After(deadline) {
			er.revoke(ctx, lockKey, leaseResp.ID)
			return heldLease{}, fmt.Errorf("failed to acquire lock on %s", key)
		}
		select {
		case <-ctx.Done():
			er.revoke(context.Background(), lockKey, leaseResp.ID)
			return heldLease{}, ctx.Err()
		case <-time.After(time.Duration(er.cfg.LockRetryInterval * float64(time.Second))):
		}
	}
}

func (er *EtcdRegistry) release(ctx context.Context, l heldLease) {
	if _, err := er.client.Delete(ctx, l.lockKey); err != nil {
		er.logger.Warn().Err(err).Msgf("failed to delete lock key %s", l.lockKey)
	}
	er.revoke(ctx, l.lockKey, l.lease)
}

func (er *EtcdRegistry) revoke(ctx context.Context, lockKey string, id clientv3.LeaseID) {
	if _, err := er.client.Revoke(ctx, id); err != nil {
		er.logger.Warn().Err(err).Msgf("failed to revoke lease for %s", lockKey)
	}
}

func (er *EtcdRegistry) Close() error {
	return er.client.Close()
}
