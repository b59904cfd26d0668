package registry

import (
	"context"
	"sort"
	"strings"
	"sync"

	"go.etcd.io/etcd/api/v3/mvccpb"
	clientv3 "go.etcd.io/etcd/client/v3"
)

// fakeEtcd is an in-memory etcdClient. Every Get is treated as a prefix read
// and Txn only understands "key absent -> put". Delete and Revoke fail on a
// cancelled context like the real client.
type fakeEtcd struct {
	mu        sync.Mutex
	data      map[string]string
	nextLease clientv3.LeaseID
	revoked   []clientv3.LeaseID
	closed    bool
}

func newFakeEtcd() *fakeEtcd {
	return &fakeEtcd{data: map[string]string{}}
}

func (f *fakeEtcd) Get(_ context.Context, key string, _ ...clientv3.OpOption) (*clientv3.GetResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var keys []string
	for k := range f.data {
		if strings.HasPrefix(k, key) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	resp := &clientv3.GetResponse{}
	for _, k := range keys {
		resp.Kvs = append(resp.Kvs, &mvccpb.KeyValue{Key: []byte(k), Value: []byte(f.data[k])})
	}
	return resp, nil
}

func (f *fakeEtcd) Put(_ context.Context, key, val string, _ ...clientv3.OpOption) (*clientv3.PutResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[key] = val
	return &clientv3.PutResponse{}, nil
}

func (f *fakeEtcd) Delete(ctx context.Context, key string, _ ...clientv3.OpOption) (*clientv3.DeleteResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.data, key)
	return &clientv3.DeleteResponse{}, nil
}

func (f *fakeEtcd) Grant(_ context.Context, ttl int64) (*clientv3.LeaseGrantResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextLease++
	return &clientv3.LeaseGrantResponse{ID: f.nextLease, TTL: ttl}, nil
}

func (f *fakeEtcd) Revoke(ctx context.Context, id clientv3.LeaseID) (*clientv3.LeaseRevokeResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.revoked = append(f.revoked, id)
	return &clientv3.LeaseRevokeResponse{}, nil
}

func (f *fakeEtcd) Txn(context.Context) clientv3.Txn {
	return &fakeTxn{etcd: f}
}

func (f *fakeEtcd) Close() error {
	f.closed = true
	return nil
}

func (f *fakeEtcd) snapshot() map[string]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]string, len(f.data))
	for k, v := range f.data {
		out[k] = v
	}
	return out
}

type fakeTxn struct {
	etcd *fakeEtcd
	cmps []clientv3.Cmp
	ops  []clientv3.Op
}

func (t *fakeTxn) If(cs ...clientv3.Cmp) clientv3.Txn {
	t.cmps = append(t.cmps, cs...)
	return t
}

func (t *fakeTxn) Then(ops ...clientv3.Op) clientv3.Txn {
	t.ops = append(t.ops, ops...)
	return t
}

func (t *fakeTxn) Else(...clientv3.Op) clientv3.Txn {
	return t
}

func (t *fakeTxn) Commit() (*clientv3.TxnResponse, error) {
	t.etcd.mu.Lock()
	defer t.etcd.mu.Unlock()
	for i := range t.cmps {
		if _, exists := t.etcd.data[string(t.cmps[i].KeyBytes())]; exists {
			return &clientv3.TxnResponse{Succeeded: false}, nil
		}
	}
	for _, op := range t.ops {
		if op.IsPut() {
			t.etcd.data[string(op.KeyBytes())] = string(op.ValueBytes())
		}
	}
	return &clientv3.TxnResponse{Succeeded: true}, nil
}
