package console

import "context"

// maxCollectPages 防止分页信息异常时无限翻页。
const maxCollectPages = 1000

// Collect 从第一页开始翻页直到最后一页，返回全部条目。
// fetch 为任一资源的列表方法值，例如 client.ListDevices。
func Collect[T any](ctx context.Context, fetch func(context.Context, ...ListOption) (*Page[T], error), opts ...ListOption) ([]T, error) {
	var all []T
	for page := 1; page <= maxCollectPages; page++ {
		if err := ctx.Err(); err != nil {
			return all, err
		}
		pageOpts := append(append([]ListOption(nil), opts...), WithPage(page))
		res, err := fetch(ctx, pageOpts...)
		if err != nil {
			return all, err
		}
		all = append(all, res.Items...)
		if len(res.Items) == 0 || !res.Pagination.HasNext() {
			break
		}
	}
	return all, nil
}
