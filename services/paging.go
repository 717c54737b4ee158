package services

type pageBounds struct {
	page       int
	totalPages int
	start      int
	end        int
}

func validateLimit(limit, defaultLimit, maxLimit int) int {
	if limit <= 0 {
		return defaultLimit
	}
	if limit > maxLimit {
		return maxLimit
	}
	return limit
}

// paginate clamps page into [1, totalPages] and returns slice bounds for it.
func paginate(total, page, perPage int) pageBounds {
	totalPages := (total + perPage - 1) / perPage
	if page < 1 {
		page = 1
	}
	if totalPages > 0 && page > totalPages {
		page = totalPages
	}

	start := (page - 1) * perPage
	if start > total {
		start = total
	}
	end := start + perPage
	if end > total {
		end = total
	}

	return pageBounds{page: page, totalPages: totalPages, start: start, end: end}
}
