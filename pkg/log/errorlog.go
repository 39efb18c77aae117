/*
 * Licensed to the Apache Software Foundation (ASF) under one or more
 * contributor license agreements.  See the NOTICE file distributed with
 * this work for additional information regarding copyright ownership.
 * The ASF licenses this file to You under the Apache License, Version 2.0
 * (the "License"); you may not use this file except in compliance with
 * the License.  You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package log

import (
	"mosn.io/pkg/log"
)

// codedErrorLogger is an ErrorLogger keyed by a fixed subsystem code, so
// router call sites don't all collapse onto the same "normal" bucket the
// way a single default logger would.
type codedErrorLogger struct {
	*log.SimpleErrorLog
	code string
}

// Router subsystem error codes. A logger from CreateSubsystemLogger tags
// every line with one code, so logs can be grep'ed by code. The loggers in
// pkg/router are all created with CodeRouter, including those that report
// upgrade and pool failures.
const (
	CodeRouter  = "router"
	CodeUpgrade = "upgrade"
	CodePool    = "pool"
)

// default logger error level format:
// {time} [{level}] [{error code}] {content}
const defaultErrorCode = "normal"

func CreateDefaultErrorLogger(output string, level log.Level) (log.ErrorLogger, error) {
	return CreateSubsystemLogger(output, level, defaultErrorCode)
}

// CreateSubsystemLogger creates an ErrorLogger that always tags its output
// with code, e.g. CodeRouter or CodeUpgrade.
func CreateSubsystemLogger(output string, level log.Level, code string) (log.ErrorLogger, error) {
	lg, err := log.GetOrCreateLogger(output, nil)
	if err != nil {
		return nil, err
	}
	return &codedErrorLogger{
		SimpleErrorLog: &log.SimpleErrorLog{
			Logger:    lg,
			Formatter: log.DefaultFormatter,
			Level:     level,
		},
		code: code,
	}, nil
}

func (l *codedErrorLogger) Errorf(format string, args ...interface{}) {
	if l.Disable() {
		return
	}
	if l.Level >= log.ERROR {
		s := l.SimpleErrorLog.Formatter(log.ErrorPre, l.code, format)
		l.Logger.Printf(s, args...)
	}
}
