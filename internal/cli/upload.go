package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	api "github.com/riskfabric/riskctl/api/v1alpha1"
	"github.com/riskfabric/riskctl/internal/client"
	"sigs.k8s.io/yaml"
)

type UploadOptions struct {
	GlobalOptions

	filePath    string
	mappingFile string
	mappingName string
}

func DefaultUploadOptions() *UploadOptions {
	return &UploadOptions{
		GlobalOptions: DefaultGlobalOptions(),
		mappingName:   "default",
	}
}

func NewCmdUpload() *cobra.Command {
	o := DefaultUploadOptions()
	cmd := &cobra.Command{
		Use:          "upload",
		Short:        "Upload an exposure file, optionally attaching a column mapping",
		Example:      "upload --file-path /path/to/exposures.csv --mapping-file mapping.yaml",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := o.Complete(cmd, args); err != nil {
				return err
			}
			if err := o.Validate(args); err != nil {
				return err
			}
			return o.Run(cmd.Context(), args)
		},
	}
	o.Bind(cmd.Flags())

	if err := cmd.MarkFlagRequired("file-path"); err != nil {
		panic(err)
	}
	return cmd
}

func (o *UploadOptions) Bind(fs *pflag.FlagSet) {
	o.GlobalOptions.Bind(fs)

	fs.StringVar(&o.filePath, "file-path", o.filePath, "Path to the exposure file to upload (required)")
	fs.StringVar(&o.mappingFile, "mapping-file", o.mappingFile, "Optional yaml/json file with the column mapping to attach")
	fs.StringVar(&o.mappingName, "mapping-name", o.mappingName, "Name of the mapping template")
}

func (o *UploadOptions) Validate(args []string) error {
	if err := o.GlobalOptions.Validate(args); err != nil {
		return err
	}
	if _, err := os.Stat(o.filePath); err != nil {
		return fmt.Errorf("file %q: %w", o.filePath, err)
	}
	return nil
}

func (o *UploadOptions) Run(ctx context.Context, args []string) error {
	svc, _, err := o.Service()
	if err != nil {
		return err
	}

	file, err := os.Open(o.filePath)
	if err != nil {
		return err
	}
	defer file.Close()

	// one token per user-initiated submission, minted before the call so
	// transport-level replays cannot create duplicate uploads
	key := client.NewIdempotencyKey()
	resp, err := svc.CreateUpload(ctx, filepath.Base(o.filePath), file, key)
	if err != nil {
		return describeError(err)
	}
	fmt.Printf("upload %s created (%s)\n", resp.UploadId, resp.ObjectUri)

	if o.mappingFile == "" {
		return nil
	}

	contents, err := os.ReadFile(o.mappingFile)
	if err != nil {
		return fmt.Errorf("reading mapping file: %w", err)
	}
	mapping := map[string]string{}
	if err := yaml.Unmarshal(contents, &mapping); err != nil {
		return fmt.Errorf("decoding mapping file: %w", err)
	}
	mappingResp, err := svc.AttachMapping(ctx, resp.UploadId, api.MappingRequest{
		Name:        o.mappingName,
		MappingJson: mapping,
	})
	if err != nil {
		return describeError(err)
	}
	fmt.Printf("mapping %q v%d attached (template %d)\n", mappingResp.Name, mappingResp.Version, mappingResp.MappingTemplateId)
	return nil
}
