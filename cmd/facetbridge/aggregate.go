package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/redis/go-redis/v9"
	"github.com/reveald/facetbridge"
	"github.com/reveald/facetbridge/algolia"
	"github.com/reveald/facetbridge/cache"
	"github.com/reveald/facetbridge/catalog"
	"github.com/reveald/facetbridge/config"
	"github.com/reveald/facetbridge/featureset"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const (
	indexFlag     = "index"
	textFlag      = "text"
	bucketFlag    = "bucket"
	dimensionFlag = "dimension"
	paramFlag     = "param"
	metricsFlag   = "metrics"
)

func newAggregateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "aggregate",
		Short: "Run a search and print its aggregations as JSON",
		Example: `  facetbridge aggregate --index catalog_product --text shirt \
    --bucket color:termBucket --bucket price:dynamicBucket:price_bucket \
    --param color=Red`,
		Args: cobra.NoArgs,
		RunE: runAggregate,
	}

	cmd.Flags().String(indexFlag, "", `Elasticsearch index, defaults to the configured one.`)
	cmd.Flags().String(textFlag, "", `Full text query.`)
	cmd.Flags().StringArray(bucketFlag, nil, `Bucket as field:type[:name], repeatable.`)
	cmd.Flags().StringArray(dimensionFlag, nil, `Dimension as name=value, repeatable.`)
	cmd.Flags().StringArray(paramFlag, nil, `Filter parameter as name=value, repeatable.`)
	cmd.Flags().Bool(metricsFlag, false, `Print the build metrics to stderr after the search.`)

	return cmd
}

func runAggregate(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	req, err := requestFromFlags(cmd, cfg)
	if err != nil {
		return err
	}

	var reg *prometheus.Registry
	if printMetrics, _ := cmd.Flags().GetBool(metricsFlag); printMetrics {
		reg = prometheus.NewRegistry()
	}

	endpoint, err := newEndpoint(cfg, logger, req, reg)
	if err != nil {
		return err
	}

	res, err := endpoint.Execute(cmd.Context(), req)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(res.Aggregations); err != nil {
		return err
	}

	if reg == nil {
		return nil
	}
	return writeMetrics(cmd.ErrOrStderr(), reg)
}

// writeMetrics prints everything gathered by g in the Prometheus text format.
func writeMetrics(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return fmt.Errorf("failed to gather metrics: %w", err)
	}

	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}

	return nil
}

func requestFromFlags(cmd *cobra.Command, cfg *config.Config) (*facetbridge.SearchRequest, error) {
	flags := cmd.Flags()

	index, _ := flags.GetString(indexFlag)
	if index == "" {
		index = cfg.Elasticsearch.Index
	}
	if index == "" {
		return nil, fmt.Errorf("no index given")
	}

	text, _ := flags.GetString(textFlag)
	req := &facetbridge.SearchRequest{
		Index:  index,
		Text:   text,
		Params: facetbridge.NewParameters(),
	}

	buckets, _ := flags.GetStringArray(bucketFlag)
	for _, b := range buckets {
		bucket, err := parseBucket(b)
		if err != nil {
			return nil, err
		}
		req.Buckets = append(req.Buckets, bucket)
	}

	dimensions, _ := flags.GetStringArray(dimensionFlag)
	for _, d := range dimensions {
		name, value, err := parsePair(d)
		if err != nil {
			return nil, err
		}
		req.Dimensions = append(req.Dimensions, facetbridge.Dimension{Name: name, Value: value})
	}

	params, _ := flags.GetStringArray(paramFlag)
	for _, p := range params {
		name, value, err := parsePair(p)
		if err != nil {
			return nil, err
		}
		req.Params.Append(facetbridge.NewParameter(name, value))
	}

	return req, nil
}

func parseBucket(s string) (facetbridge.BucketRequest, error) {
	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 3 || parts[0] == "" {
		return facetbridge.BucketRequest{}, fmt.Errorf("invalid bucket %q, expected field:type[:name]", s)
	}

	bucket := facetbridge.BucketRequest{
		Field: parts[0],
		Type:  facetbridge.BucketType(parts[1]),
		Name:  parts[0],
	}
	if len(parts) == 3 && parts[2] != "" {
		bucket.Name = parts[2]
	}

	return bucket, nil
}

func parsePair(s string) (string, string, error) {
	name, value, ok := strings.Cut(s, "=")
	if !ok || name == "" {
		return "", "", fmt.Errorf("invalid value %q, expected name=value", s)
	}

	return name, value, nil
}

func newEndpoint(cfg *config.Config, logger *logrus.Logger, req *facetbridge.SearchRequest, reg *prometheus.Registry) (*facetbridge.Endpoint, error) {
	backend, err := facetbridge.NewElasticBackend(cfg.Elasticsearch.Nodes,
		facetbridge.WithCredentials(cfg.Elasticsearch.Username, cfg.Elasticsearch.Password))
	if err != nil {
		return nil, err
	}

	opts := []facetbridge.BuilderOption{
		facetbridge.WithBucketBuilder(facetbridge.TermBucket, featureset.NewTermsBucket()),
		facetbridge.WithBucketBuilder(facetbridge.DynamicBucket, featureset.NewDynamicBucket()),
		facetbridge.WithLogger(logger),
	}
	if reg != nil {
		opts = append(opts, facetbridge.WithMetrics(facetbridge.NewMetrics(reg)))
	}

	if cfg.Catalog.Path != "" {
		var lookup facetbridge.OptionLookup = facetbridge.NewOptionResolver(catalog.NewFileFactory(cfg.Catalog.Path))
		if cfg.Redis.Addr != "" {
			rdb := redis.NewClient(&redis.Options{
				Addr:     cfg.Redis.Addr,
				Password: cfg.Redis.Password,
				DB:       cfg.Redis.DB,
			})
			lookup = cache.NewOptionCache(rdb, lookup,
				cache.WithPrefix(cfg.Redis.Prefix),
				cache.WithTTL(cfg.Redis.TTL),
				cache.WithLogger(logger))
		}
		opts = append(opts, facetbridge.WithOptionLookup(lookup))
	}

	builder := facetbridge.NewAggregationBuilder(facetbridge.NewElasticDataProviderFactory(backend), opts...)

	endpointOpts := []facetbridge.EndpointOption{
		facetbridge.WithEndpointLogger(logger),
		facetbridge.WithFeatures(
			featureset.NewQueryFilterFeature(),
			featureset.NewPaginationFeature(),
		),
	}
	for _, b := range req.Buckets {
		if b.Type == facetbridge.TermBucket {
			endpointOpts = append(endpointOpts, facetbridge.WithFeatures(featureset.NewFilterFeature(b.Field)))
		}
	}

	if cfg.Algolia.AppID != "" {
		source := algolia.NewFacetSource(
			algolia.NewIndex(cfg.Algolia.AppID, cfg.Algolia.APIKey, cfg.Algolia.Index),
			algolia.WithFilters(cfg.Algolia.Filters),
			algolia.WithMaxValuesPerFacet(cfg.Algolia.MaxValuesPerFacet),
			algolia.WithLogger(logger))
		endpointOpts = append(endpointOpts, facetbridge.WithFacetSource(source))
	}

	return facetbridge.NewEndpoint(backend, builder, endpointOpts...), nil
}
