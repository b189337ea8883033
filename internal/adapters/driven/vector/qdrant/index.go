// Package qdrant provides a vector index adapter backed by a Qdrant server.
package qdrant

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"

	"github.com/qdrant/go-client/qdrant"

	"github.com/custodia-labs/docsync/internal/core/domain"
	"github.com/custodia-labs/docsync/internal/core/ports/driven"
)

// Ensure VectorIndex implements the interface.
var _ driven.VectorIndex = (*VectorIndex)(nil)

// DefaultPort is the Qdrant gRPC port.
const DefaultPort = 6334

// client is the subset of *qdrant.Client used by the index.
type client interface {
	CollectionExists(ctx context.Context, collectionName string) (bool, error)
	DeleteCollection(ctx context.Context, collectionName string) error
	CreateCollection(ctx context.Context, request *qdrant.CreateCollection) error
	Upsert(ctx context.Context, request *qdrant.UpsertPoints) (*qdrant.UpdateResult, error)
	HealthCheck(ctx context.Context) (*qdrant.HealthCheckReply, error)
	Close() error
}

// Config holds connection settings for Qdrant.
type Config struct {
	// Host is the server hostname.
	Host string

	// Port is the gRPC port (default: 6334).
	Port int

	// APIKey authenticates requests. Empty for unauthenticated servers.
	APIKey string

	// UseTLS enables transport security.
	UseTLS bool
}

// ParseURL builds a Config from an address such as "https://host:6334"
// or "localhost". An https scheme enables TLS.
func ParseURL(raw, apiKey string) (Config, error) {
	if raw == "" {
		return Config{}, fmt.Errorf("qdrant: address is required")
	}
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return Config{}, fmt.Errorf("qdrant: parse address: %w", err)
	}

	cfg := Config{
		Host:   u.Hostname(),
		Port:   DefaultPort,
		APIKey: apiKey,
	}
	switch u.Scheme {
	case "https", "grpcs":
		cfg.UseTLS = true
	case "http", "grpc":
	default:
		return Config{}, fmt.Errorf("qdrant: unsupported scheme %q", u.Scheme)
	}
	if cfg.Host == "" {
		return Config{}, fmt.Errorf("qdrant: missing host in %q", raw)
	}
	if p := u.Port(); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return Config{}, fmt.Errorf("qdrant: invalid port %q: %w", p, err)
		}
		cfg.Port = port
	}
	return cfg, nil
}

// Address returns host:port.
func (c Config) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// VectorIndex stores records as Qdrant points.
type VectorIndex struct {
	client client
}

// New connects to Qdrant. The gRPC connection is established lazily.
func New(cfg Config) (*VectorIndex, error) {
	if cfg.Port == 0 {
		cfg.Port = DefaultPort
	}
	c, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant: connect %s: %w", cfg.Address(), err)
	}
	return &VectorIndex{client: c}, nil
}

// DeleteCollection removes the collection if it exists.
func (v *VectorIndex) DeleteCollection(ctx context.Context, name string) error {
	exists, err := v.client.CollectionExists(ctx, name)
	if err != nil {
		return fmt.Errorf("qdrant: check collection %q: %w", name, err)
	}
	if !exists {
		return nil
	}
	if err := v.client.DeleteCollection(ctx, name); err != nil {
		return fmt.Errorf("qdrant: delete collection %q: %w", name, err)
	}
	return nil
}

// CreateCollection creates the collection with the given vector shape.
func (v *VectorIndex) CreateCollection(ctx context.Context, spec domain.CollectionSpec) error {
	distance, err := toDistance(spec.Distance)
	if err != nil {
		return err
	}
	if spec.Dimensions <= 0 {
		return fmt.Errorf("qdrant: collection %q needs positive dimensions: %w", spec.Name, domain.ErrInvalidInput)
	}

	exists, err := v.client.CollectionExists(ctx, spec.Name)
	if err != nil {
		return fmt.Errorf("qdrant: check collection %q: %w", spec.Name, err)
	}
	if exists {
		return fmt.Errorf("qdrant: collection %q: %w", spec.Name, domain.ErrAlreadyExists)
	}

	err = v.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: spec.Name,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(spec.Dimensions),
			Distance: distance,
		}),
	})
	if err != nil {
		return fmt.Errorf("qdrant: create collection %q: %w", spec.Name, err)
	}
	return nil
}

// Upsert writes one point and waits for it to be applied.
func (v *VectorIndex) Upsert(ctx context.Context, collection string, record domain.IndexRecord) error {
	payload, err := qdrant.TryValueMap(record.Payload)
	if err != nil {
		return fmt.Errorf("qdrant: encode payload of point %d: %w", record.ID, err)
	}

	_, err = v.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: collection,
		Wait:           qdrant.PtrOf(true),
		Points: []*qdrant.PointStruct{{
			Id:      qdrant.NewIDNum(record.ID),
			Vectors: qdrant.NewVectorsDense(record.Vector),
			Payload: payload,
		}},
	})
	if err != nil {
		return fmt.Errorf("qdrant: upsert point %d into %q: %w", record.ID, collection, err)
	}
	return nil
}

// Ping checks the server health endpoint.
func (v *VectorIndex) Ping(ctx context.Context) error {
	if _, err := v.client.HealthCheck(ctx); err != nil {
		return fmt.Errorf("qdrant: health check: %w", err)
	}
	return nil
}

// Close closes the gRPC connection.
func (v *VectorIndex) Close() error {
	return v.client.Close()
}

func toDistance(d domain.Distance) (qdrant.Distance, error) {
	switch d {
	case domain.DistanceCosine:
		return qdrant.Distance_Cosine, nil
	case domain.DistanceDot:
		return qdrant.Distance_Dot, nil
	case domain.DistanceEuclid:
		return qdrant.Distance_Euclid, nil
	case domain.DistanceManhattan:
		return qdrant.Distance_Manhattan, nil
	default:
		return qdrant.Distance_UnknownDistance, fmt.Errorf("qdrant: distance %q: %w", d, domain.ErrInvalidInput)
	}
}
