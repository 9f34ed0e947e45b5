package e2e

import (
	"context"
	"fmt"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
)

// influxClient prepares the bucket the simulation writes to and reads the
// points back.
type influxClient struct {
	org    string
	bucket string
	client influxdb2.Client
	query  api.QueryAPI
}

func newInfluxClient(url, org, bucket, token string) *influxClient {
	c := influxdb2.NewClient(url, token)
	return &influxClient{org: org, bucket: bucket, client: c, query: c.QueryAPI(org)}
}

// setupBucket creates the organisation and bucket when they are missing.
func (c *influxClient) setupBucket(ctx context.Context) error {
	orgAPI := c.client.OrganizationsAPI()
	org, err := orgAPI.FindOrganizationByName(ctx, c.org)
	if err != nil || org == nil {
		org, err = orgAPI.CreateOrganizationWithName(ctx, c.org)
		if err != nil {
			return fmt.Errorf("create org: %w", err)
		}
	}
	buckets, err := c.client.BucketsAPI().FindBucketsByOrgName(ctx, c.org)
	if err != nil {
		return err
	}
	if buckets != nil {
		for _, b := range *buckets {
			if b.Name == c.bucket {
				return nil
			}
		}
	}
	if _, err := c.client.BucketsAPI().CreateBucketWithName(ctx, org, c.bucket); err != nil {
		return fmt.Errorf("create bucket: %w", err)
	}
	return nil
}

// countField returns the number of values of field in measurement for runID.
func (c *influxClient) countField(ctx context.Context, measurement, field, runID string) (int, error) {
	flux := fmt.Sprintf(`from(bucket:%q)
  |> range(start: -1h)
  |> filter(fn: (r) => r._measurement == %q and r._field == %q and r.run_id == %q)`,
		c.bucket, measurement, field, runID)
	res, err := c.query.Query(ctx, flux)
	if err != nil {
		return 0, err
	}
	defer res.Close()
	n := 0
	for res.Next() {
		n++
	}
	return n, res.Err()
}

func (c *influxClient) close() { c.client.Close() }
