package storage

import (
	"context"
	"mime/multipart"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// Asset 上传结果：外链 + 用于删除的存储 id
type Asset struct {
	URL string
	ID  string
}

// Storage 头像等对象存储协作方
type Storage interface {
	Upload(ctx context.Context, file *multipart.FileHeader) (Asset, error)
	Delete(ctx context.Context, id string) error
}

type CloudinaryStorage struct {
	cld    *cloudinary.Cloudinary
	folder string
}

func NewCloudinary(cloudName, apiKey, apiSecret, folder string) (*CloudinaryStorage, error) {
	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, err
	}
	return &CloudinaryStorage{cld: cld, folder: folder}, nil
}

func (s *CloudinaryStorage) Upload(ctx context.Context, file *multipart.FileHeader) (Asset, error) {
	f, err := file.Open()
	if err != nil {
		return Asset{}, err
	}
	defer f.Close()

	res, err := s.cld.Upload.Upload(ctx, f, uploader.UploadParams{Folder: s.folder})
	if err != nil {
		return Asset{}, err
	}
	return Asset{URL: res.SecureURL, ID: res.PublicID}, nil
}

func (s *CloudinaryStorage) Delete(ctx context.Context, id string) error {
	_, err := s.cld.Upload.Destroy(ctx, uploader.DestroyParams{PublicID: id})
	return err
}
