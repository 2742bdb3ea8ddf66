package httpapi

import "net/http"

func (s *Server) handleCacheStats(w http.ResponseWriter, r *http.Request) {
	attrStats := s.AttrCache.Stats()
	imgStats := s.ImageCache.Stats()

	writeSuccess(w, map[string]any{
		"disk_entries":        attrStats.DiskEntries,
		"memory_entries":      attrStats.MemoryEntries,
		"memory_bytes":        attrStats.MemoryBytes,
		"memory_limit_bytes":  attrStats.MemoryLimitBytes,
		"image_cache_stats": map[string]any{
			"total_files":  imgStats.TotalFiles,
			"by_provider":  imgStats.ByProvider,
		},
	})
}
