package service

import "errors"

var (
	ErrImageNotFound    = errors.New("图片不存在")
	ErrNotOwner         = errors.New("图片不属于当前用户")
	ErrOwnerNotFound    = errors.New("用户不存在")
	ErrEmptyImage       = errors.New("图片数据不能为空")
	ErrInvalidPage      = errors.New("页码超出范围")
	ErrInvalidPageSize  = errors.New("每页数量超出范围")
	ErrInvalidSortOrder = errors.New("排序方式只能是 newest 或 oldest")
	ErrInvalidRating    = errors.New("评分必须在 0 到 5 之间")
	ErrUnsupportedImage = errors.New("不支持的图片格式")
	ErrImageTooLarge    = errors.New("图片尺寸超出限制")
)
