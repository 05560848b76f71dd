package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestObjectKey(t *testing.T) {
	u := &Uploader{cfg: Config{Bucket: "campus-gap", Prefix: "runs/2024"}}
	assert.Equal(t, "runs/2024/report.json", u.objectKey("report.json"))
	assert.Equal(t, "runs/2024/tables/demographic_gaps.csv", u.objectKey("tables/demographic_gaps.csv"))

	bare := &Uploader{cfg: Config{Bucket: "campus-gap"}}
	assert.Equal(t, "report.json", bare.objectKey("report.json"))
}

func TestContentTypeForKey(t *testing.T) {
	assert.Equal(t, "text/csv", contentTypeForKey("tables/demographic_gaps.csv"))
	assert.Equal(t, "application/json", contentTypeForKey("report.json"))
	assert.Equal(t, "image/png", contentTypeForKey("charts/monthly_trends.PNG"))
	assert.Equal(t, "", contentTypeForKey("notes.txt"))
}
