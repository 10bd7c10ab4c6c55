package versions

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
)

var ErrUnknownVersion = errors.New("unknown game version")

// UnknownVersionError reports a version id that the index (or the loader
// catalogue) does not know.
type UnknownVersionError struct {
	ID string
}

func (e *UnknownVersionError) Error() string {
	return fmt.Sprintf("unknown game version %q", e.ID)
}

func (e *UnknownVersionError) Unwrap() error {
	return ErrUnknownVersion
}

// Service answers "which versions exist" and "what is version X" on top
// of the cache, falling back to a stale list when the network is down.
type Service struct {
	Cache  *Cache
	Fabric *FabricClient

	logger *log.Logger
}

func NewService(cache *Cache, fabric *FabricClient, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.Default()
	}
	return &Service{Cache: cache, Fabric: fabric, logger: logger}
}

// List returns the known vanilla versions: the fresh cache when possible,
// a revalidated list otherwise, and the stale cache as a last resort when
// the network is unreachable. Only no-network-and-no-cache errors out.
func (s *Service) List(ctx context.Context) ([]GameVersion, error) {
	if list, ok := s.Cache.Get(); ok {
		return list, nil
	}

	list, err := s.Cache.Revalidate(ctx)
	if err != nil {
		if stale, ok := s.Cache.Stale(); ok {
			s.logger.Warn("serving stale version index", "err", err)
			return stale, nil
		}
		return nil, err
	}
	return list, nil
}

// Releases filters List down to release-type versions.
func (s *Service) Releases(ctx context.Context) ([]GameVersion, error) {
	list, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	releases := make([]GameVersion, 0, len(list))
	for _, v := range list {
		if v.Type == "release" {
			releases = append(releases, v)
		}
	}
	return releases, nil
}

// Lookup resolves a version id, composite loader ids included. Loader
// entries are derived from their base version plus the loader profile
// endpoint.
func (s *Service) Lookup(ctx context.Context, id string) (GameVersion, error) {
	if loaderVersion, baseID, ok := ParseLoaderID(id); ok {
		base, err := s.Lookup(ctx, baseID)
		if err != nil {
			return GameVersion{}, err
		}
		derived := base.WithLoader(loaderVersion)
		derived.URL = s.Fabric.ProfileURL(base.ID, loaderVersion)
		return derived, nil
	}

	list, err := s.List(ctx)
	if err != nil {
		return GameVersion{}, err
	}
	for _, v := range list {
		if v.ID == id {
			return v, nil
		}
	}
	return GameVersion{}, &UnknownVersionError{ID: id}
}

// WithLatestLoader derives the loader variant of a vanilla version using
// the newest stable loader.
func (s *Service) WithLatestLoader(ctx context.Context, base GameVersion) (GameVersion, error) {
	loaderVersion, err := s.Fabric.LatestStableLoader(ctx)
	if err != nil {
		return GameVersion{}, err
	}
	derived := base.WithLoader(loaderVersion)
	derived.URL = s.Fabric.ProfileURL(base.BaseVersion(), loaderVersion)
	return derived, nil
}
