// Package region resolves the free-text neighborhood of a transaction record to a region code.
package region

import (
	"context"
	"fmt"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/fern/pkg/dongname"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// Source lists the known regions of a sigungu.
type Source interface {
	ListBySigungu(ctx context.Context, sigunguCode string) ([]models.Region, error)
}

// Resolver maps (sigungu code, dong name) to a region code.
type Resolver struct {
	source Source
	dongs  *dongname.Processor
	logger ectologger.Logger
}

// NewResolver creates a Resolver.
func NewResolver(source Source, dongs *dongname.Processor, logger ectologger.Logger) *Resolver {
	return &Resolver{
		source: source,
		dongs:  dongs,
		logger: logger,
	}
}

// Resolve returns the region code for dongName within sigunguCode, or "" when no region
// is a unique fit. The candidate forms of dongName are tried in order, first against the
// exact region names and then against the candidate forms of every region name. A form
// shared by two regions is never used.
func (r *Resolver) Resolve(ctx context.Context, sigunguCode, dongName string) (string, error) {
	ctx, span := tracing.StartSpan(ctx, "region.Resolver.Resolve")
	defer span.End()

	forms := r.dongs.Candidates(dongName)
	if len(forms) == 0 {
		return "", nil
	}

	regions, err := r.source.ListBySigungu(ctx, sigunguCode)
	if err != nil {
		return "", fmt.Errorf("failed to resolve region for %s %s: %w", sigunguCode, dongName, err)
	}

	exact := make(map[string]string, len(regions))
	loose := make(map[string]string, len(regions)*4)
	shared := make(map[string]bool)
	exactShared := make(map[string]bool)
	for _, region := range regions {
		regionForms := r.dongs.Candidates(region.DongName)
		if len(regionForms) == 0 {
			continue
		}
		if code, ok := exact[regionForms[0]]; ok && code != region.RegionCode {
			exactShared[regionForms[0]] = true
		} else {
			exact[regionForms[0]] = region.RegionCode
		}
		for _, form := range regionForms {
			if code, ok := loose[form]; ok && code != region.RegionCode {
				shared[form] = true
				continue
			}
			loose[form] = region.RegionCode
		}
	}

	for _, form := range forms {
		if code, ok := exact[form]; ok && !exactShared[form] {
			return code, nil
		}
	}
	for _, form := range forms {
		if code, ok := loose[form]; ok && !shared[form] {
			return code, nil
		}
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"sigungu_code": sigunguCode,
		"dong_name":    dongName,
	}).Debug("no unique region for dong name")
	return "", nil
}
