// Copyright (c) 2025, NVIDIA CORPORATION.  All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cli

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/researchplatform/rpctl/pkg/backup"
	"github.com/researchplatform/rpctl/pkg/defaults"
	"github.com/researchplatform/rpctl/pkg/oci"
)

func (a *app) backups() *backup.Manager {
	return backup.NewManager(a.cfg.ProjectDir, a.cfg.Backup.Dir,
		backup.WithComposeFile(a.cfg.ComposeFile),
		backup.WithExportDir(a.cfg.ExportDir),
		backup.WithClock(a.now),
	)
}

func (a *app) backupCmd() *cli.Command {
	return &cli.Command{
		Name:     "backup",
		Category: categoryData,
		Usage:    "Archive server_files, templates, static, .env and the compose file",
		Description: `Writes backups/backup_YYYYMMDD_HHMMSS.tar.gz and a sha256 sidecar next to
it. Missing entries are skipped with a warning. With --keep N only the newest
N archives are kept.`,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "keep",
				Usage: "number of archives to keep, 0 keeps all (default from config)",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			keep := a.cfg.Backup.Keep
			if cmd.IsSet("keep") {
				keep = cmd.Int("keep")
			}

			a.info("Creating backup...")
			archive, err := a.backups().Create(ctx, backup.CreateOptions{Keep: keep})
			if err != nil {
				return fmt.Errorf("backup failed: %w", err)
			}
			for _, s := range archive.Skipped {
				a.warn("Skipped %s (missing, broken link or special file)", s)
			}
			a.success("Backup created: %s (%s)", archive.Path, backup.HumanBytes(archive.Size))
			return nil
		},
	}
}

func (a *app) restoreCmd() *cli.Command {
	return &cli.Command{
		Name:      "restore",
		Category:  categoryData,
		Usage:     "Restore a backup, the latest by default",
		ArgsUsage: "[archive]",
		Description: `Extracts a backup archive into the project directory. The app service is
stopped during extraction and started again afterwards. The sha256 sidecar is
verified when present, and entries that would escape the project directory
are rejected. Fails when no backup exists.`,
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "skip-verify", Usage: "do not verify the checksum sidecar"},
			&cli.BoolFlag{Name: "no-stop", Usage: "do not stop the app service during the restore"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			m := a.backups()
			name := cmd.Args().First()

			if _, err := m.Find(name); err != nil {
				a.fail("No backup found in %s", m.Dir())
				return err
			}

			opts := backup.RestoreOptions{
				Name:       name,
				SkipVerify: cmd.Bool("skip-verify"),
			}
			if !cmd.Bool("no-stop") {
				c, err := a.compose(ctx)
				if err != nil {
					return err
				}
				opts.Before = func(ctx context.Context) error {
					return c.Stop(ctx, a.cfg.AppService)
				}
				opts.After = func(ctx context.Context) error {
					return c.Start(ctx, a.cfg.AppService)
				}
			}

			a.info("Restoring backup...")
			res, err := m.Restore(ctx, opts)
			if err != nil {
				return fmt.Errorf("restore failed: %w", err)
			}
			if !res.Verified && !opts.SkipVerify {
				a.warn("No checksum for %s, restored unverified", res.Archive.Name)
			}
			a.success("Restored %d file(s) from %s", res.Files, res.Archive.Name)
			return nil
		},
	}
}

func (a *app) backupListCmd() *cli.Command {
	return &cli.Command{
		Name:     "backup-list",
		Category: categoryData,
		Usage:    "List backups, newest first",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			archives, err := a.backups().List()
			if err != nil {
				return err
			}
			return a.write(ctx, cmd, archives)
		},
	}
}

func (a *app) backupPushCmd() *cli.Command {
	return &cli.Command{
		Name:      "backup-push",
		Category:  categoryData,
		Usage:     "Copy a backup to the NAS bucket or an OCI registry",
		ArgsUsage: "[archive]",
		Description: `Copies a backup off the host, the latest by default.

  --to s3   uploads to the S3-compatible bucket on the NAS (MinIO). The
            endpoint defaults to NAS_IP:9000, credentials come from
            RP_BACKUP_S3_ACCESS_KEY and RP_BACKUP_S3_SECRET_KEY.
  --to oci  pushes a single-layer artifact to --ref or
            RP_BACKUP_OCI_REFERENCE, e.g. oci://nas:5000/research/backups.
            The archive name is used as tag when the reference has none.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "to",
				Value: "s3",
				Usage: "destination: s3 or oci",
			},
			&cli.StringFlag{Name: "ref", Usage: "OCI reference, oci://registry/repository[:tag]"},
			&cli.StringFlag{Name: "prefix", Usage: "S3 object key prefix"},
			&cli.BoolFlag{Name: "plain-http", Usage: "use HTTP for the OCI registry"},
			&cli.BoolFlag{Name: "insecure-tls", Usage: "skip TLS verification for the OCI registry"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			archive, err := a.backups().Find(cmd.Args().First())
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(ctx, defaults.RemoteUploadTimeout)
			defer cancel()

			switch cmd.String("to") {
			case "s3":
				target, err := backup.NewS3Target(backup.S3Options{
					Endpoint:  a.cfg.S3Endpoint(),
					Bucket:    a.cfg.Backup.S3.Bucket,
					AccessKey: a.cfg.Backup.S3.AccessKey,
					SecretKey: a.cfg.Backup.S3.SecretKey,
					UseSSL:    a.cfg.Backup.S3.UseSSL,
					Prefix:    cmd.String("prefix"),
				})
				if err != nil {
					return err
				}
				res, err := target.Upload(ctx, archive)
				if err != nil {
					return err
				}
				a.success("Uploaded %s to %s/%s", archive.Name, res.Bucket, res.Key)
				return a.write(ctx, cmd, res)

			case "oci":
				raw := cmd.String("ref")
				if raw == "" {
					raw = a.cfg.Backup.OCI.Reference
				}
				ref, err := oci.ParseReference(raw)
				if err != nil {
					return err
				}
				if ref.Tag == "" {
					ref = ref.WithTag(archive.Tag())
				}
				res, err := oci.Push(ctx, oci.PushOptions{
					File:        archive.Path,
					Reference:   ref,
					PlainHTTP:   cmd.Bool("plain-http") || a.cfg.Backup.OCI.PlainHTTP,
					InsecureTLS: cmd.Bool("insecure-tls"),
					Annotations: map[string]string{
						"io.researchplatform.backup.sha256": archive.Checksum,
					},
				})
				if err != nil {
					return err
				}
				a.success("Pushed %s as %s", archive.Name, res.Reference)
				return a.write(ctx, cmd, res)

			default:
				return fmt.Errorf("unknown destination %q, use s3 or oci", cmd.String("to"))
			}
		},
	}
}

func (a *app) exportDataCmd() *cli.Command {
	return &cli.Command{
		Name:     "export-data",
		Category: categoryData,
		Usage:    "Export server_files and uploads with a manifest",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			a.info("Exporting data...")
			res, err := a.backups().Export(ctx)
			if err != nil {
				return fmt.Errorf("export failed: %w", err)
			}
			a.success("Data exported to %s (%d files, %s)", res.Path, res.Manifest.Files, backup.HumanBytes(res.Size))
			return nil
		},
	}
}
