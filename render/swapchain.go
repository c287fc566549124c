package render

import (
	"cmp"
	"fmt"
	"math"

	"github.com/go-gl/glfw/v3.3/glfw"
	vk "github.com/vulkan-go/vulkan"
)

func (r *Renderer) createSwapChain() error {
	swapChainSupport, err := r.querySwapChainSupport(r.physicalDevice)
	if err != nil {
		return err
	}

	surfaceFormat := chooseSwapSurfaceFormat(swapChainSupport.formats)
	presentMode := chooseSwapPresentMode(swapChainSupport.presentModes)

	width, height := r.window.GetFramebufferSize()
	extend := chooseSwapExtent(swapChainSupport.capabilities, width, height)

	imageCount := swapChainSupport.capabilities.MinImageCount + 1
	if swapChainSupport.capabilities.MaxImageCount > 0 &&
		imageCount > swapChainSupport.capabilities.MaxImageCount {
		imageCount = swapChainSupport.capabilities.MaxImageCount
	}

	createInfo := vk.SwapchainCreateInfo{
		SType:            vk.StructureTypeSwapchainCreateInfo,
		Surface:          r.surface,
		MinImageCount:    imageCount,
		ImageColorSpace:  surfaceFormat.ColorSpace,
		ImageFormat:      surfaceFormat.Format,
		ImageExtent:      extend,
		ImageArrayLayers: 1,
		ImageUsage:       vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit),
		PreTransform:     swapChainSupport.capabilities.CurrentTransform,
		CompositeAlpha:   vk.CompositeAlphaOpaqueBit,
		PresentMode:      presentMode,
		Clipped:          vk.True,
	}

	indices := r.findQueueFamilies(r.physicalDevice)
	if indices.Shared() {
		createInfo.ImageSharingMode = vk.SharingModeExclusive
	} else {
		families := indices.Unique()
		createInfo.ImageSharingMode = vk.SharingModeConcurrent
		createInfo.QueueFamilyIndexCount = uint32(len(families))
		createInfo.PQueueFamilyIndices = families
	}

	var swapChain vk.Swapchain
	res := vk.CreateSwapchain(r.device, &createInfo, nil, &swapChain)
	if err := vk.Error(res); err != nil {
		return fmt.Errorf("failed to create swap chain: %w", err)
	}
	r.swapChain = swapChain

	var imagesCount uint32
	vk.GetSwapchainImages(r.device, r.swapChain, &imagesCount, nil)

	images := make([]vk.Image, imagesCount)
	vk.GetSwapchainImages(r.device, r.swapChain, &imagesCount, images)

	r.swapChainImages = images

	r.swapChainImageFormat = surfaceFormat.Format
	r.swapChainExtend = extend

	return nil
}

func (r *Renderer) recreateSwapChain() error {
	for {
		width, height := r.window.GetFramebufferSize()
		if width != 0 && height != 0 {
			break
		}

		// Minimised; there is nothing to draw into.
		glfw.WaitEvents()
	}

	vk.DeviceWaitIdle(r.device)

	r.cleanupSwapChain()

	if err := r.createSwapChain(); err != nil {
		return fmt.Errorf("createSwapChain: %w", err)
	}
	if err := r.createImageViews(); err != nil {
		return fmt.Errorf("createImageViews: %w", err)
	}
	if err := r.createDepthResources(); err != nil {
		return fmt.Errorf("createDepthResources: %w", err)
	}
	if err := r.createFramebuffers(); err != nil {
		return fmt.Errorf("createFramebuffers: %w", err)
	}

	return nil
}

func (r *Renderer) cleanupSwapChain() {
	if r.depthImageView != vk.NullImageView {
		vk.DestroyImageView(r.device, r.depthImageView, nil)
		r.depthImageView = vk.NullImageView
	}

	if r.depthImage != vk.NullImage {
		vk.DestroyImage(r.device, r.depthImage, nil)
		r.depthImage = vk.NullImage
	}

	if r.depthImageMemory != vk.NullDeviceMemory {
		vk.FreeMemory(r.device, r.depthImageMemory, nil)
		r.depthImageMemory = vk.NullDeviceMemory
	}

	for _, frameBuffer := range r.swapChainFramebuffers {
		vk.DestroyFramebuffer(r.device, frameBuffer, nil)
	}

	for _, imageView := range r.swapChainImageViews {
		vk.DestroyImageView(r.device, imageView, nil)
	}

	if r.swapChain != vk.NullSwapchain {
		vk.DestroySwapchain(r.device, r.swapChain, nil)
		r.swapChain = vk.NullSwapchain
	}
	r.swapChainFramebuffers = nil
	r.swapChainImages = nil
	r.swapChainImageViews = nil
}

func (r *Renderer) createImageViews() error {
	for i, swapChainImage := range r.swapChainImages {
		imageView, err := r.createImageView(
			swapChainImage,
			r.swapChainImageFormat,
			vk.ImageAspectFlags(vk.ImageAspectColorBit),
		)
		if err != nil {
			return fmt.Errorf("failed to create image %d: %w", i, err)
		}

		r.swapChainImageViews = append(r.swapChainImageViews, imageView)
	}

	return nil
}

func (r *Renderer) createImageView(
	image vk.Image,
	format vk.Format,
	aspectFlags vk.ImageAspectFlags,
) (vk.ImageView, error) {
	createInfo := vk.ImageViewCreateInfo{
		SType:    vk.StructureTypeImageViewCreateInfo,
		Image:    image,
		ViewType: vk.ImageViewType2d,
		Format:   format,
		Components: vk.ComponentMapping{
			R: vk.ComponentSwizzleIdentity,
			G: vk.ComponentSwizzleIdentity,
			B: vk.ComponentSwizzleIdentity,
			A: vk.ComponentSwizzleIdentity,
		},
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask:     aspectFlags,
			BaseMipLevel:   0,
			LevelCount:     1,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},
	}

	var imageView vk.ImageView
	res := vk.CreateImageView(r.device, &createInfo, nil, &imageView)
	if err := vk.Error(res); err != nil {
		return nil, fmt.Errorf("failed to create image view: %w", err)
	}

	return imageView, nil
}

func (r *Renderer) createDepthResources() error {
	depthFormat, err := r.findDepthFormat()
	if err != nil {
		return fmt.Errorf("could not find suitable depth image format: %w", err)
	}

	var (
		depthImage       vk.Image
		depthImageMemory vk.DeviceMemory
	)

	err = r.createImage(
		r.swapChainExtend.Width,
		r.swapChainExtend.Height,
		depthFormat,
		vk.ImageTilingOptimal,
		vk.ImageUsageFlags(vk.ImageUsageDepthStencilAttachmentBit),
		vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit),
		&depthImage,
		&depthImageMemory,
	)
	if err != nil {
		return fmt.Errorf("could not create depth image: %w", err)
	}

	r.depthImage = depthImage
	r.depthImageMemory = depthImageMemory

	depthImageView, err := r.createImageView(
		depthImage,
		depthFormat,
		vk.ImageAspectFlags(vk.ImageAspectDepthBit),
	)
	if err != nil {
		return fmt.Errorf("failed to create depth image view: %w", err)
	}
	r.depthImageView = depthImageView

	return nil
}

func (r *Renderer) findSupportedFormat(
	candidates []vk.Format,
	tiling vk.ImageTiling,
	features vk.FormatFeatureFlags,
) (vk.Format, error) {
	for _, format := range candidates {
		var props vk.FormatProperties
		vk.GetPhysicalDeviceFormatProperties(r.physicalDevice, format, &props)
		props.Deref()

		if tiling == vk.ImageTilingLinear &&
			(props.LinearTilingFeatures&features) == features {
			return format, nil
		}

		if tiling == vk.ImageTilingOptimal &&
			(props.OptimalTilingFeatures&features) == features {
			return format, nil
		}
	}

	return 0, fmt.Errorf("could not find suitable format")
}

func (r *Renderer) findDepthFormat() (vk.Format, error) {
	return r.findSupportedFormat(
		[]vk.Format{
			vk.FormatD32Sfloat,
			vk.FormatD32SfloatS8Uint,
			vk.FormatD24UnormS8Uint,
		},
		vk.ImageTilingOptimal,
		vk.FormatFeatureFlags(vk.FormatFeatureDepthStencilAttachmentBit),
	)
}

func (r *Renderer) createFramebuffers() error {
	r.swapChainFramebuffers = make([]vk.Framebuffer, len(r.swapChainImageViews))

	for i, swapChainView := range r.swapChainImageViews {
		attachments := []vk.ImageView{
			swapChainView,
			r.depthImageView,
		}

		frameBufferInfo := vk.FramebufferCreateInfo{
			SType:           vk.StructureTypeFramebufferCreateInfo,
			RenderPass:      r.renderPass,
			AttachmentCount: uint32(len(attachments)),
			PAttachments:    attachments,
			Width:           r.swapChainExtend.Width,
			Height:          r.swapChainExtend.Height,
			Layers:          1,
		}

		var frameBuffer vk.Framebuffer
		res := vk.CreateFramebuffer(r.device, &frameBufferInfo, nil, &frameBuffer)
		if err := vk.Error(res); err != nil {
			return fmt.Errorf("failed to create frame buffer %d: %w", i, err)
		}

		r.swapChainFramebuffers[i] = frameBuffer
	}

	return nil
}

// chooseSwapSurfaceFormat prefers 8-bit BGRA in the sRGB colour space. Shaders then
// write linear colours and the hardware encodes them.
func chooseSwapSurfaceFormat(availableFormats []vk.SurfaceFormat) vk.SurfaceFormat {
	for _, format := range availableFormats {
		if format.Format == vk.FormatB8g8r8a8Srgb &&
			format.ColorSpace == vk.ColorSpaceSrgbNonlinear {
			return format
		}
	}

	return availableFormats[0]
}

func chooseSwapPresentMode(available []vk.PresentMode) vk.PresentMode {
	for _, mode := range available {
		if mode == vk.PresentModeMailbox {
			return mode
		}
	}

	return vk.PresentModeFifo
}

// chooseSwapExtent uses the surface's own extent unless the window manager lets the
// application pick, in which case the framebuffer size is clamped to the limits.
func chooseSwapExtent(
	capabilities vk.SurfaceCapabilities,
	framebufferWidth, framebufferHeight int,
) vk.Extent2D {
	if capabilities.CurrentExtent.Width != math.MaxUint32 {
		return capabilities.CurrentExtent
	}

	return vk.Extent2D{
		Width: clamp(
			uint32(max(framebufferWidth, 0)),
			capabilities.MinImageExtent.Width,
			capabilities.MaxImageExtent.Width,
		),
		Height: clamp(
			uint32(max(framebufferHeight, 0)),
			capabilities.MinImageExtent.Height,
			capabilities.MaxImageExtent.Height,
		),
	}
}

func clamp[T cmp.Ordered](val, min, max T) T {
	if val < min {
		val = min
	}
	if val > max {
		val = max
	}
	return val
}
