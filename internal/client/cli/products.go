package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/dkurbatov/catalogkeeper/internal/client/models"
	"github.com/dkurbatov/catalogkeeper/internal/client/services"
	"github.com/dkurbatov/catalogkeeper/internal/filex"
)

func printProduct(p *models.Product) {
	printlnFn("ID:            ", p.ID)
	printlnFn("Name:          ", p.Name)
	printlnFn("Description:   ", p.Description)
	printlnFn("Price:         ", fmt.Sprintf("%.2f", p.Price))
	printlnFn("Marketplace:   ", p.MarketplaceURL)
	if p.ThumbnailURL != "" {
		printlnFn("Thumbnail:     ", p.ThumbnailURL)
	}
	printlnFn("Created:       ", p.CreatedAt.Format("2006-01-02 15:04:05"))
}

func printWarning(res *services.SaveResult) {
	if res != nil && res.Warning != nil {
		printlnFn("Warning:", res.Warning.String())
	}
}

// promptInput collects the product fields interactively. The update flag
// allows leaving the marketplace URL empty.
func (a *App) promptInput(update bool) (*models.ProductInput, error) {
	name, err := getSimpleText(a.reader, "Enter name", os.Stdout)
	if err != nil {
		return nil, err
	}
	description, err := getSimpleText(a.reader, "Enter description (optional)", os.Stdout)
	if err != nil {
		return nil, err
	}
	priceText, err := getSimpleText(a.reader, "Enter price", os.Stdout)
	if err != nil {
		return nil, err
	}
	price, err := strconv.ParseFloat(priceText, 64)
	if err != nil {
		printlnFn("Price must be a number.")
		return nil, err
	}
	url, err := getSimpleText(a.reader, "Enter marketplace URL", os.Stdout)
	if err != nil {
		return nil, err
	}

	var in *models.ProductInput
	if update {
		in, err = models.NewProductUpdateInput(name, description, price, url)
	} else {
		in, err = models.NewProductInput(name, description, price, url)
	}
	if err != nil {
		printlnFn(err.Error())
		return nil, err
	}
	return in, nil
}

// promptFile reads an optional thumbnail file from disk. An empty path
// means no thumbnail.
func (a *App) promptFile() (*models.FileUpload, error) {
	path, err := getSimpleText(a.reader, "Enter thumbnail file path (optional)", os.Stdout)
	if err != nil {
		return nil, err
	}
	if path == "" {
		return nil, nil
	}
	f, err := filex.ReadUpload(path)
	if err != nil {
		printlnFn("Cannot read file:", err.Error())
		return nil, err
	}
	return f, nil
}

func (a *App) List(ctx context.Context) error {
	items, err := a.products.List(ctx)
	if err != nil {
		printlnFn("List failed:", err.Error())
		return err
	}
	if len(items) == 0 {
		printlnFn("No products.")
		return nil
	}
	for _, p := range items {
		printlnFn(fmt.Sprintf("%s  %-30s  %8.2f", p.ID, p.Name, p.Price))
	}
	return nil
}

func (a *App) Show(ctx context.Context) error {
	id, err := getSimpleText(a.reader, "Enter product ID", os.Stdout)
	if err != nil {
		return err
	}
	p, err := a.products.Get(ctx, id)
	if err != nil {
		printlnFn(err.Error())
		return err
	}
	printProduct(p)
	return nil
}

func (a *App) Create(ctx context.Context) error {
	in, err := a.promptInput(false)
	if err != nil {
		return err
	}
	file, err := a.promptFile()
	if err != nil {
		return err
	}

	res, err := a.catalog.CreateWithThumbnail(ctx, in, file)
	if err != nil {
		printlnFn(err.Error())
		return err
	}
	printlnFn("Created product", res.Product.ID)
	printWarning(res)
	return nil
}

func (a *App) Update(ctx context.Context) error {
	id, err := getSimpleText(a.reader, "Enter product ID", os.Stdout)
	if err != nil {
		return err
	}
	in, err := a.promptInput(true)
	if err != nil {
		return err
	}
	file, err := a.promptFile()
	if err != nil {
		return err
	}

	res, err := a.catalog.UpdateWithThumbnail(ctx, id, in, file)
	if err != nil {
		printlnFn(err.Error())
		return err
	}
	printlnFn("Updated product", res.Product.ID)
	printWarning(res)
	return nil
}

func (a *App) Delete(ctx context.Context) error {
	id, err := getSimpleText(a.reader, "Enter product ID", os.Stdout)
	if err != nil {
		return err
	}

	res, err := a.catalog.DeleteWithCleanup(ctx, id)
	if err != nil {
		printlnFn(err.Error())
		return err
	}
	printlnFn("Deleted.")
	printWarning(res)
	return nil
}

func (a *App) SetThumbnail(ctx context.Context) error {
	id, err := getSimpleText(a.reader, "Enter product ID", os.Stdout)
	if err != nil {
		return err
	}
	path, err := getSimpleText(a.reader, "Enter thumbnail file path", os.Stdout)
	if err != nil {
		return err
	}
	file, err := filex.ReadUpload(path)
	if err != nil {
		printlnFn("Cannot read file:", err.Error())
		return err
	}

	res, err := a.catalog.ReplaceThumbnail(ctx, id, file)
	if err != nil {
		printlnFn(err.Error())
		return err
	}
	printlnFn("Thumbnail set:", res.Product.ThumbnailURL)
	printWarning(res)
	return nil
}

func (a *App) RemoveThumbnail(ctx context.Context) error {
	id, err := getSimpleText(a.reader, "Enter product ID", os.Stdout)
	if err != nil {
		return err
	}

	res, err := a.catalog.RemoveThumbnail(ctx, id)
	if err != nil {
		printlnFn(err.Error())
		return err
	}
	printlnFn("Thumbnail removed.")
	printWarning(res)
	return nil
}
