package spa

import (
	"context"
	"errors"

	"github.com/klothoplatform/spa-stack/pkg/assets"
	"github.com/klothoplatform/spa-stack/pkg/construct"
	"github.com/klothoplatform/spa-stack/pkg/logging"
	"github.com/klothoplatform/spa-stack/pkg/provider/aws"
	"github.com/klothoplatform/spa-stack/pkg/stack"
	"go.uber.org/zap"
)

type (
	ObjectStorageProps struct {
		// AssetsPath is the directory of built static assets to upload.
		AssetsPath string
		Excludes   []string
		// AssetBucket is where staged assets are published, and may contain `${AWS::...}` variables.
		AssetBucket string
		// DeploymentHandlerExport names the export of the custom resource provider which copies assets.
		DeploymentHandlerExport string
		Stager                  assets.Stager
	}

	// ObjectStorage is a private bucket holding the site's assets.
	ObjectStorage struct {
		Unit       *stack.Unit
		Bucket     aws.Bucket
		Deployment construct.ResourceId
		Asset      *assets.Asset
	}
)

func NewObjectStorage(ctx context.Context, app *stack.App, name string, props ObjectStorageProps) (*ObjectStorage, error) {
	err := errors.Join(
		stack.RequirePath(name, "assets path", props.AssetsPath),
		stack.RequireValue(name, "asset bucket", props.AssetBucket),
		stack.RequireValue(name, "deployment handler export", props.DeploymentHandlerExport),
	)
	if err != nil {
		return nil, err
	}
	stager := props.Stager
	if stager == nil {
		stager = assets.DirStager{}
	}
	asset, err := stager.Stage(ctx, props.AssetsPath, props.Excludes)
	if err != nil {
		return nil, err
	}

	unit, err := app.NewUnit(name, "Private origin bucket and its static assets")
	if err != nil {
		return nil, err
	}
	log := logging.GetLogger(ctx).With(logging.UnitField(name))

	bucketRes, err := unit.Declare(aws.Id(aws.BucketType, "OriginBucket"), aws.PrivateBucketProperties())
	if err != nil {
		return nil, err
	}
	bucket, err := aws.AsBucket(bucketRes)
	if err != nil {
		return nil, err
	}

	err = app.AddAsset(stack.Asset{Hash: asset.Hash, Path: asset.Dir, Packaging: stack.PackagingZip})
	if err != nil {
		return nil, err
	}
	deployment, err := unit.Declare(aws.Id(aws.BucketDeploymentType, "DeployWebsite"), aws.BucketDeployment{
		HandlerExport:     props.DeploymentHandlerExport,
		SourceBucket:      construct.Sub(props.AssetBucket),
		SourceKey:         asset.Key(),
		DestinationBucket: bucket.Name(),
		Prune:             true,
	}.Properties())
	if err != nil {
		return nil, err
	}
	log.Info("Declared origin storage", zap.Int("assets", len(asset.Files)), zap.String("asset_hash", asset.Hash))

	return &ObjectStorage{
		Unit:       unit,
		Bucket:     bucket,
		Deployment: deployment.ID,
		Asset:      asset,
	}, nil
}
