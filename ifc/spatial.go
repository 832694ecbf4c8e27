package ifc

import "go.uber.org/zap"

// buildContainmentMap scans every IfcRelContainedInSpatialStructure
// relation and maps each contained element to its containing spatial
// structure (usually a storey). Later relations overwrite earlier ones.
// Malformed relations are skipped; the result is read-only afterwards.
func buildContainmentMap(r LineReader, log *zap.Logger) map[uint32]uint32 {
	containment := map[uint32]uint32{}
	rels := r.LinesWithType(IfcRelContainedInSpatialStructure)
	for _, relID := range rels {
		// arg 4: RelatedElements, arg 5: RelatingStructure
		structure, err := r.RefArg(relID, 5)
		if err != nil {
			log.Warn("skipping containment relation: bad relating structure",
				zap.Uint32("rel", relID), zap.Error(err))
			continue
		}
		elements, err := r.SetArg(relID, 4)
		if err != nil {
			log.Warn("skipping containment relation: bad related elements",
				zap.Uint32("rel", relID), zap.Error(err))
			continue
		}
		for _, e := range elements {
			containment[e] = structure
		}
		log.Debug("containment relation",
			zap.Uint32("structure", structure), zap.Int("elements", len(elements)))
	}
	log.Info("built spatial containment map",
		zap.Int("relations", len(rels)), zap.Int("elements", len(containment)))
	return containment
}
