/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"tikflow-ledger-go/internal/common"
	"tikflow-ledger-go/internal/config"
	"tikflow-ledger-go/internal/matcher"

	"go.uber.org/zap"
)

// ingestOne runs a single notification through the matcher and reports
// the outcome on stdout.
func ingestOne(ctx context.Context, m *matcher.Matcher, sender, message string) error {
	outcome, err := m.Ingest(ctx, sender, message)
	if err != nil {
		return err
	}

	switch outcome.Status {
	case matcher.OutcomeAccepted:
		fmt.Printf("accepted: ref=%s amount=%s\n", outcome.RefId, outcome.Amount.String())
	case matcher.OutcomeDuplicate:
		fmt.Printf("duplicate: ref=%s already recorded\n", outcome.RefId)
	case matcher.OutcomeParsingFailed:
		fmt.Println("parsing_failed: no reference or amount found in message")
	case matcher.OutcomeUnauthorized:
		fmt.Printf("unauthorized: sender %q not in allow-list\n", sender)
	}
	return nil
}

// ingestStream reads "sender|message" lines from stdin, one payment
// notification per line.
func ingestStream(ctx context.Context, m *matcher.Matcher) error {
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var processed, failed int
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		sender, message, found := strings.Cut(line, "|")
		if !found {
			zap.L().Warn("Skipping malformed line, expected sender|message")
			failed++
			continue
		}

		if err := ingestOne(ctx, m, strings.TrimSpace(sender), message); err != nil {
			zap.L().Error("Failed to ingest notification",
				zap.String("sender", sender),
				zap.Error(err))
			failed++
			continue
		}
		processed++
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read stdin: %w", err)
	}

	zap.L().Info("Stream ingestion completed",
		zap.Int("processed", processed),
		zap.Int("failed", failed))
	return nil
}

func main() {
	ctx := context.Background()

	logger, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	senderFlag := flag.String("sender", "", "Sender id of the payment notification")
	messageFlag := flag.String("message", "", "Raw notification text")
	stdinFlag := flag.Bool("stdin", false, "Read sender|message lines from stdin")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	if *stdinFlag {
		if err := ingestStream(ctx, services.Matcher); err != nil {
			logger.Fatal("Stream ingestion failed", zap.Error(err))
		}
		return
	}

	if *messageFlag == "" {
		logger.Fatal("Either -message or -stdin is required")
	}

	if err := ingestOne(ctx, services.Matcher, *senderFlag, *messageFlag); err != nil {
		logger.Fatal("Failed to ingest notification", zap.Error(err))
	}
}
