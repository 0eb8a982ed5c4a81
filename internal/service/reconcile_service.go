package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/labstack/gommon/log"
	"golang.org/x/sync/errgroup"

	"mediashare/internal/events"
	"mediashare/internal/repository"
	"mediashare/internal/storage"
)

// ObjectLister enumerates stored objects and removes them.
type ObjectLister interface {
	List(ctx context.Context) ([]storage.ObjectInfo, error)
	Delete(ctx context.Context, key string) error
}

// ReconcileOptions controls a reconciliation run.
type ReconcileOptions struct {
	// DeleteOrphanObjects removes objects that no record references.
	DeleteOrphanObjects bool
	// Grace skips objects younger than this; an upload may still be writing its record.
	Grace time.Duration
}

// ReconcileReport lists the inconsistencies found between the two stores.
type ReconcileReport struct {
	Objects        int
	Records        int
	OrphanObjects  []storage.ObjectInfo
	OrphanRecords  []string
	DeletedObjects []string
}

// ReconcileService compares object keys with image records out of band.
type ReconcileService struct {
	imageRepo repository.ImageRepository
	objects   ObjectLister
	publisher events.Publisher
	now       func() time.Time
}

// NewReconcileService creates a reconcile service.
func NewReconcileService(imageRepo repository.ImageRepository, objects ObjectLister, publisher events.Publisher) *ReconcileService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &ReconcileService{
		imageRepo: imageRepo,
		objects:   objects,
		publisher: publisher,
		now:       time.Now,
	}
}

// Run finds orphaned objects and orphaned records. Records are only reported;
// their owner can remove them with a normal delete.
func (s *ReconcileService) Run(ctx context.Context, opts ReconcileOptions) (*ReconcileReport, error) {
	var (
		objects []storage.ObjectInfo
		keys    []string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		objects, err = s.objects.List(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		keys, err = s.imageRepo.StorageKeys(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("reconcile: %w", err)
	}

	report := &ReconcileReport{Objects: len(objects), Records: len(keys)}

	referenced := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		referenced[k] = struct{}{}
	}
	stored := make(map[string]struct{}, len(objects))
	for _, obj := range objects {
		stored[obj.Key] = struct{}{}
		if _, ok := referenced[obj.Key]; !ok {
			report.OrphanObjects = append(report.OrphanObjects, obj)
		}
	}
	for _, k := range keys {
		if _, ok := stored[k]; !ok {
			report.OrphanRecords = append(report.OrphanRecords, k)
		}
	}
	sort.Strings(report.OrphanRecords)

	for _, obj := range report.OrphanObjects {
		s.announce(ctx, events.OrphanObject, obj.Key)
	}
	for _, k := range report.OrphanRecords {
		s.announce(ctx, events.OrphanRecord, k)
	}

	if !opts.DeleteOrphanObjects {
		return report, nil
	}

	cutoff := s.now().Add(-opts.Grace)
	for _, obj := range report.OrphanObjects {
		if obj.LastModified.After(cutoff) {
			log.Infof("keeping young orphan object %s (modified %s)", obj.Key, obj.LastModified.Format(time.RFC3339))
			continue
		}
		if err := s.objects.Delete(ctx, obj.Key); err != nil {
			return report, fmt.Errorf("delete orphan object %s: %w", obj.Key, err)
		}
		report.DeletedObjects = append(report.DeletedObjects, obj.Key)
	}
	return report, nil
}

func (s *ReconcileService) announce(ctx context.Context, kind, key string) {
	log.Warnj(log.JSON{"message": "orphan found", "orphan": kind, "storage_key": key})
	if err := s.publisher.Publish(ctx, events.Event{
		Type:       events.ImageOrphaned,
		Kind:       kind,
		StorageKey: key,
		Reason:     "reconcile",
	}); err != nil {
		log.Warnf("publish %s: %v", events.ImageOrphaned, err)
	}
}
