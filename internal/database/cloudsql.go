/*
 * Copyright 2025 Google LLC
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *    https://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */
package database

import (
	"fmt"
	"os"
	"strings"

	"github.com/GoogleCloudPlatform/db-quality-scorer/internal/config"
)

// CloudSQLParams are the values needed to dial a Cloud SQL instance.
type CloudSQLParams struct {
	User         string
	Password     string
	DBName       string
	Instance     string
	UsePrivateIP bool
}

// ResolveCloudSQLParams reads the Cloud SQL parameters from cfg, falling
// back to the user_name, password, database_name, instance_name and
// PRIVATE_IP environment variables for empty fields.
func ResolveCloudSQLParams(cfg config.DatabaseConfig) (CloudSQLParams, error) {
	pick := func(v, env string) string {
		if v != "" {
			return v
		}
		return os.Getenv(env)
	}
	p := CloudSQLParams{
		User:     pick(cfg.User, "user_name"),
		Password: pick(cfg.Password, "password"),
		DBName:   pick(cfg.DBName, "database_name"),
		Instance: pick(cfg.CloudSQLInstanceConnectionName, "instance_name"),
	}
	if cfg.UsePrivateIP {
		p.UsePrivateIP = true
	} else {
		env := strings.ToLower(os.Getenv("PRIVATE_IP"))
		p.UsePrivateIP = env != "" && env != "false" && env != "0"
	}

	if p.User == "" || p.DBName == "" || p.Instance == "" {
		return p, fmt.Errorf("missing required CloudSQL connection parameter (user, db, instance)")
	}
	return p, nil
}
