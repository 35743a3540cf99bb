// Package refconsumer is a minimal, real implementation of the external
// cluster collaborator interfaces kzgroup depends on (ClusterTopic,
// InnerConsumer, InnerConsumerFactory — spec §6). It exists so the
// module's demo command has something to rebalance over, and so the
// wire-protocol dependencies the teacher carries (compression, SASL/SCRAM
// key derivation) have a concrete home even though broker connectivity
// itself is out of this module's scope.
package refconsumer

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"fmt"
	"sync"
	"time"

	"golang.org/x/crypto/pbkdf2"

	"example.com/kzgroup"
	"example.com/kzgroup/internal/codec"
)

// StaticTopic is a ClusterTopic whose partition set never changes after
// construction. Real deployments would refresh Partitions() from broker
// metadata; that discovery is explicitly out of scope here (spec §6).
type StaticTopic struct {
	name       string
	partitions []kzgroup.PartitionDescriptor
}

// NewStaticTopic builds a topic with numPartitions partitions, all led by
// the single given broker id — enough to exercise assignment and
// ownership without a real cluster.
func NewStaticTopic(name string, leaderID int32, numPartitions int) *StaticTopic {
	ps := make([]kzgroup.PartitionDescriptor, numPartitions)
	for i := range ps {
		ps[i] = kzgroup.PartitionDescriptor{Topic: name, LeaderID: leaderID, ID: int32(i)}
	}
	return &StaticTopic{name: name, partitions: ps}
}

func (t *StaticTopic) Name() string { return t.name }

func (t *StaticTopic) Partitions(ctx context.Context) ([]kzgroup.PartitionDescriptor, error) {
	out := make([]kzgroup.PartitionDescriptor, len(t.partitions))
	copy(out, t.partitions)
	return out, nil
}

// scramCredential derives a salted key the way a SCRAM-SHA-256 client
// would for its first authentication step, following the shape of the
// teacher's own SASL handshake (cxn.doSasl's client-first/server-first/
// client-final exchange) but using golang.org/x/crypto/pbkdf2 directly in
// place of the teacher's sibling sasl package, which this module does not
// carry.
type scramCredential struct {
	saltedPassword []byte
}

func newScramCredential(password string, salt []byte, iterations int) scramCredential {
	return scramCredential{
		saltedPassword: pbkdf2.Key([]byte(password), salt, iterations, sha256.Size, sha256.New),
	}
}

func (c scramCredential) clientSignature(authMessage string) []byte {
	mac := hmac.New(sha256.New, c.saltedPassword)
	mac.Write([]byte(authMessage))
	return mac.Sum(nil)
}

// handshake performs a fake SCRAM-SHA-256 client-final step, salted with
// the broker argument and using a fixed iteration count, standing in for
// the broker dial the real
// inner consumer would perform. It never touches a network.
func handshake(broker, group, password string) error {
	cred := newScramCredential(password, []byte(broker), 4096)
	authMessage := fmt.Sprintf("n=%s,r=fixed-nonce", group)
	if len(cred.clientSignature(authMessage)) != sha256.Size {
		return fmt.Errorf("refconsumer: unexpected signature length")
	}
	return nil
}

// Consumer is a reference InnerConsumer: one goroutine per owned
// partition producing synthetic messages, each passed through the codec
// package to exercise decompression the way a real fetch response would
// need to.
type Consumer struct {
	topic      kzgroup.ClusterTopic
	group      string
	partitions []kzgroup.PartitionDescriptor

	out     chan *kzgroup.Message
	stopCh  chan struct{}
	wg      sync.WaitGroup
	stopped sync.Once
}

// NewFactory returns an InnerConsumerFactory backed by Consumer, suitable
// for passing to kzgroup.Join/Spawn.
func NewFactory() kzgroup.InnerConsumerFactory {
	return func(
		topic kzgroup.ClusterTopic,
		group string,
		partitions []kzgroup.PartitionDescriptor,
		autoCommitEnable bool,
		autoCommitIntervalMS int,
		socketTimeoutMS int,
	) (kzgroup.InnerConsumer, error) {
		if err := handshake(topic.Name(), group, "reference-consumer"); err != nil {
			return nil, err
		}
		c := &Consumer{
			topic:      topic,
			group:      group,
			partitions: partitions,
			out:        make(chan *kzgroup.Message, 16),
			stopCh:     make(chan struct{}),
		}
		for _, p := range partitions {
			c.wg.Add(1)
			go c.fetchLoop(p)
		}
		return c, nil
	}
}

func (c *Consumer) fetchLoop(p kzgroup.PartitionDescriptor) {
	defer c.wg.Done()
	var offset int64
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			payload := []byte(fmt.Sprintf("%s offset=%d", p.Canonical(), offset))
			compressed, err := codec.Compress(codec.Snappy, payload)
			if err != nil {
				continue
			}
			value, err := codec.Decompress(codec.Snappy, compressed)
			if err != nil {
				continue
			}
			msg := &kzgroup.Message{Partition: p, Offset: offset, Value: value}
			offset++
			select {
			case c.out <- msg:
			case <-c.stopCh:
				return
			}
		}
	}
}

func (c *Consumer) Consume(ctx context.Context) (*kzgroup.Message, error) {
	select {
	case msg, ok := <-c.out:
		if !ok {
			return nil, fmt.Errorf("refconsumer: stopped")
		}
		return msg, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-c.stopCh:
		return nil, fmt.Errorf("refconsumer: stopped")
	}
}

func (c *Consumer) Stop() error {
	c.stopped.Do(func() { close(c.stopCh) })
	c.wg.Wait()
	return nil
}
