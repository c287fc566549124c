package render

import (
	"fmt"
	"math"

	vk "github.com/vulkan-go/vulkan"

	"cube-navigator/unsafer"
)

func (r *Renderer) createCommandPool() error {
	queueFamilyIndices := r.findQueueFamilies(r.physicalDevice)
	poolInfo := vk.CommandPoolCreateInfo{
		SType: vk.StructureTypeCommandPoolCreateInfo,
		Flags: vk.CommandPoolCreateFlags(
			vk.CommandPoolCreateResetCommandBufferBit,
		),
		QueueFamilyIndex: queueFamilyIndices.Graphics.Get(),
	}

	var commandPool vk.CommandPool
	res := vk.CreateCommandPool(r.device, &poolInfo, nil, &commandPool)
	if err := vk.Error(res); err != nil {
		return fmt.Errorf("failed to create command pool: %w", err)
	}
	r.commandPool = commandPool

	return nil
}

func (r *Renderer) createCommandBuffers() error {
	allocInfo := vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        r.commandPool,
		Level:              vk.CommandBufferLevelPrimary,
		CommandBufferCount: maxFramesInFlight,
	}

	commandBuffers := make([]vk.CommandBuffer, maxFramesInFlight)
	res := vk.AllocateCommandBuffers(r.device, &allocInfo, commandBuffers)
	if err := vk.Error(res); err != nil {
		return fmt.Errorf("failed to allocate command buffer: %w", err)
	}
	r.commandBuffers = commandBuffers

	return nil
}

func (r *Renderer) createSyncObjects() error {
	semaphoreInfo := vk.SemaphoreCreateInfo{
		SType: vk.StructureTypeSemaphoreCreateInfo,
	}

	fenceInfo := vk.FenceCreateInfo{
		SType: vk.StructureTypeFenceCreateInfo,
		Flags: vk.FenceCreateFlags(vk.FenceCreateSignaledBit),
	}

	for i := 0; i < maxFramesInFlight; i++ {
		var imageAvailabmeSem vk.Semaphore
		if err := vk.Error(
			vk.CreateSemaphore(r.device, &semaphoreInfo, nil, &imageAvailabmeSem),
		); err != nil {
			return fmt.Errorf("failed to create imageAvailabmeSem: %w", err)
		}

		var renderFinishedSem vk.Semaphore
		if err := vk.Error(
			vk.CreateSemaphore(r.device, &semaphoreInfo, nil, &renderFinishedSem),
		); err != nil {
			vk.DestroySemaphore(r.device, imageAvailabmeSem, nil)
			return fmt.Errorf("failed to create renderFinishedSem: %w", err)
		}

		var fence vk.Fence
		if err := vk.Error(
			vk.CreateFence(r.device, &fenceInfo, nil, &fence),
		); err != nil {
			vk.DestroySemaphore(r.device, imageAvailabmeSem, nil)
			vk.DestroySemaphore(r.device, renderFinishedSem, nil)
			return fmt.Errorf("failed to create inFlightFence: %w", err)
		}

		// Appended together so Destroy can walk all three by the same index.
		r.imageAvailabmeSems = append(r.imageAvailabmeSems, imageAvailabmeSem)
		r.renderFinishedSems = append(r.renderFinishedSems, renderFinishedSem)
		r.inFlightFences = append(r.inFlightFences, fence)
	}

	return nil
}

func (r *Renderer) recordCommandBuffer(
	commandBuffer vk.CommandBuffer,
	imageIndex uint32,
) error {
	beginInfo := vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
		Flags: 0,
	}

	res := vk.BeginCommandBuffer(commandBuffer, &beginInfo)
	if err := vk.Error(res); err != nil {
		return fmt.Errorf("cannot add begin command to the buffer: %w", err)
	}

	var clearValues [2]vk.ClearValue

	clearValues[0].SetColor(clearColor(r.opts.Background))
	clearValues[1].SetDepthStencil(1, 0)

	renderPassInfo := vk.RenderPassBeginInfo{
		SType:       vk.StructureTypeRenderPassBeginInfo,
		RenderPass:  r.renderPass,
		Framebuffer: r.swapChainFramebuffers[imageIndex],
		RenderArea: vk.Rect2D{
			Offset: vk.Offset2D{
				X: 0,
				Y: 0,
			},
			Extent: r.swapChainExtend,
		},
		ClearValueCount: uint32(len(clearValues)),
		PClearValues:    clearValues[:],
	}

	vk.CmdBeginRenderPass(commandBuffer, &renderPassInfo, vk.SubpassContentsInline)

	if r.indexCount > 0 {
		vk.CmdBindPipeline(commandBuffer, vk.PipelineBindPointGraphics, r.graphicsPipline)

		vertexBuffers := []vk.Buffer{r.vertexBuffer}
		offsets := []vk.DeviceSize{0}
		vk.CmdBindVertexBuffers(commandBuffer, 0, 1, vertexBuffers, offsets)

		vk.CmdBindIndexBuffer(commandBuffer, r.indexBuffer, 0, vk.IndexTypeUint32)

		vk.CmdSetViewport(commandBuffer, 0, 1, []vk.Viewport{r.viewport()})
		vk.CmdSetScissor(commandBuffer, 0, 1, []vk.Rect2D{r.scissor()})

		vk.CmdBindDescriptorSets(
			commandBuffer,
			vk.PipelineBindPointGraphics,
			r.pipelineLayout,
			0,
			1,
			[]vk.DescriptorSet{r.descriptorSets[r.curentFrame]},
			0,
			nil,
		)

		vk.CmdDrawIndexed(commandBuffer, r.indexCount, 1, 0, 0, 0)
	}

	vk.CmdEndRenderPass(commandBuffer)

	if err := vk.Error(vk.EndCommandBuffer(commandBuffer)); err != nil {
		return fmt.Errorf("recording commands to buffer failed: %w", err)
	}
	return nil
}

// DrawFrame renders the uploaded geometry with the given matrices and presents it.
// The swap chain is recreated when it no longer matches the window.
func (r *Renderer) DrawFrame(ubo UniformBufferObject) error {
	fences := []vk.Fence{r.inFlightFences[r.curentFrame]}
	vk.WaitForFences(r.device, 1, fences, vk.True, math.MaxUint64)

	var imageIndex uint32
	res := vk.AcquireNextImage(
		r.device,
		r.swapChain,
		math.MaxUint64,
		r.imageAvailabmeSems[r.curentFrame],
		vk.Fence(vk.NullHandle),
		&imageIndex,
	)
	if res == vk.ErrorOutOfDate {
		return r.recreateSwapChain()
	} else if res != vk.Success && res != vk.Suboptimal {
		return fmt.Errorf("failed to acquire swap chain image: %w", vk.Error(res))
	}

	// Only reset the fence if we are submitting work.
	vk.ResetFences(r.device, 1, fences)

	commandBuffer := r.commandBuffers[r.curentFrame]

	vk.ResetCommandBuffer(commandBuffer, 0)
	if err := r.recordCommandBuffer(commandBuffer, imageIndex); err != nil {
		return fmt.Errorf("recording command buffer: %w", err)
	}

	vk.Memcopy(r.uniformBuffersMapped[r.curentFrame], unsafer.StructToBytes(&ubo))

	signalSemaphores := []vk.Semaphore{
		r.renderFinishedSems[r.curentFrame],
	}

	submitInfo := vk.SubmitInfo{
		SType:              vk.StructureTypeSubmitInfo,
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{r.imageAvailabmeSems[r.curentFrame]},
		PWaitDstStageMask: []vk.PipelineStageFlags{
			vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		},
		CommandBufferCount:   1,
		PCommandBuffers:      []vk.CommandBuffer{commandBuffer},
		PSignalSemaphores:    signalSemaphores,
		SignalSemaphoreCount: uint32(len(signalSemaphores)),
	}

	res = vk.QueueSubmit(
		r.graphicsQueue,
		1,
		[]vk.SubmitInfo{submitInfo},
		r.inFlightFences[r.curentFrame],
	)
	if err := vk.Error(res); err != nil {
		return fmt.Errorf("queue submit error: %w", err)
	}

	swapChains := []vk.Swapchain{
		r.swapChain,
	}

	presentInfo := vk.PresentInfo{
		SType:              vk.StructureTypePresentInfo,
		WaitSemaphoreCount: uint32(len(signalSemaphores)),
		PWaitSemaphores:    signalSemaphores,
		SwapchainCount:     uint32(len(swapChains)),
		PSwapchains:        swapChains,
		PImageIndices:      []uint32{imageIndex},
	}

	r.curentFrame = (r.curentFrame + 1) % maxFramesInFlight

	res = vk.QueuePresent(r.presentQueue, &presentInfo)
	if res == vk.ErrorOutOfDate || res == vk.Suboptimal || r.frameBufferResized {
		r.frameBufferResized = false
		return r.recreateSwapChain()
	} else if res != vk.Success {
		return fmt.Errorf("failed to present swap chain image: %w", vk.Error(res))
	}

	return nil
}
