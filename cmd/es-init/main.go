// Copyright (c) 2026 The OpenZipkin Authors.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"log"
	"os"
	"os/signal"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/wenjq0911/zipkin/internal/config"
	"github.com/wenjq0911/zipkin/internal/storage/elasticsearch"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	v := viper.New()
	opts := elasticsearch.NewOptions("es")

	command := &cobra.Command{
		Use:   "zipkin-es-init",
		Short: "zipkin-es-init installs the span index template",
		Long: "zipkin-es-init connects to the Elasticsearch cluster, detects its version and " +
			"installs or updates the span index template so later index creations pick up " +
			"the intended settings and mappings.",
		RunE: func(_ *cobra.Command, _ []string) error {
			opts.InitFromViper(v)
			cfg := opts.GetConfig()
			if err := cfg.Validate(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()

			f, err := elasticsearch.NewFactory(ctx, *cfg, logger, prometheus.NewRegistry())
			if err != nil {
				return err
			}
			defer f.Close()

			if result := f.Check(ctx); !result.Ok {
				return result.Error
			}
			logger.Info("span index template is in place")
			return nil
		},
	}

	config.AddFlags(v, command, opts.AddFlags)

	if err := command.Execute(); err != nil {
		log.Fatalln(err)
	}
}
